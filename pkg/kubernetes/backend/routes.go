package backend

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"k8s.io/apimachinery/pkg/labels"

	xhttp "github.com/akuity/devportal/pkg/http"
	"github.com/akuity/devportal/pkg/kubernetes"
	"github.com/akuity/devportal/pkg/logging"
)

// objectsQuery is the body of POST /services/:entity.
type objectsQuery struct {
	LabelSelector string                 `json:"labelSelector,omitempty"`
	Namespace     string                 `json:"namespace,omitempty"`
	Auth          kubernetes.RequestAuth `json:"auth"`
}

// customResourcesQuery is the body of POST /resources/custom/query.
type customResourcesQuery struct {
	Entity          string                             `json:"entity"`
	LabelSelector   string                             `json:"labelSelector,omitempty"`
	Namespace       string                             `json:"namespace,omitempty"`
	Auth            kubernetes.RequestAuth             `json:"auth"`
	CustomResources []kubernetes.CustomResourceMatcher `json:"customResources"`
}

type clustersResponse struct {
	Items []ClusterSummary `json:"items"`
}

// RegisterRoutes adds the Kubernetes backend's routes to r, relative to the
// plugin's mount point.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/clusters", s.listClusters)
	r.POST("/services/:entity", s.getObjectsByEntity)
	r.POST("/resources/custom/query", s.getCustomResources)
}

func (s *Service) listClusters(c *gin.Context) {
	clusters, err := s.ListClusters(c.Request.Context())
	if err != nil {
		logging.LoggerFromContext(c.Request.Context()).Error(err, "")
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, clustersResponse{Items: clusters})
}

func (s *Service) getObjectsByEntity(c *gin.Context) {
	var q objectsQuery
	if !xhttp.BindJSONOrError(c, &q) {
		return
	}
	req := kubernetes.ObjectsByEntityRequest{
		Entity:        c.Param("entity"),
		LabelSelector: q.LabelSelector,
		Namespace:     q.Namespace,
		Auth:          q.Auth,
	}
	if !validSelectorOrError(c, req) {
		return
	}
	resp, err := s.GetObjectsByEntity(c.Request.Context(), req)
	if err != nil {
		logging.LoggerFromContext(c.Request.Context()).Error(err, "")
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Service) getCustomResources(c *gin.Context) {
	var q customResourcesQuery
	if !xhttp.BindJSONOrError(c, &q) {
		return
	}
	if q.Entity == "" {
		_ = c.Error(xhttp.ErrorStr("entity is required", http.StatusBadRequest))
		return
	}
	if len(q.CustomResources) == 0 {
		_ = c.Error(
			xhttp.ErrorStr("at least one custom resource is required", http.StatusBadRequest),
		)
		return
	}
	req := kubernetes.CustomResourcesByEntityRequest{
		ObjectsByEntityRequest: kubernetes.ObjectsByEntityRequest{
			Entity:        q.Entity,
			LabelSelector: q.LabelSelector,
			Namespace:     q.Namespace,
			Auth:          q.Auth,
		},
		CustomResources: q.CustomResources,
	}
	if !validSelectorOrError(c, req.ObjectsByEntityRequest) {
		return
	}
	resp, err := s.GetCustomResourcesByEntity(c.Request.Context(), req)
	if err != nil {
		logging.LoggerFromContext(c.Request.Context()).Error(err, "")
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// validSelectorOrError reports whether req's label selector parses. Returns
// false if a 400 was added to the gin context.
func validSelectorOrError(c *gin.Context, req kubernetes.ObjectsByEntityRequest) bool {
	if _, err := labels.Parse(req.Selector()); err != nil {
		_ = c.Error(xhttp.Error(err, http.StatusBadRequest))
		return false
	}
	return true
}
