package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/akuity/devportal/pkg/config"
	"github.com/akuity/devportal/pkg/gitprovider"
	xhttp "github.com/akuity/devportal/pkg/http"
	"github.com/akuity/devportal/pkg/logging"
	"github.com/akuity/devportal/pkg/promotion"
	"github.com/akuity/devportal/pkg/release"
)

// ProviderFactory returns a Git provider for a project's repository.
type ProviderFactory func(context.Context, release.Project) (gitprovider.Interface, error)

// ReleaseManager serves the release manager's routes.
type ReleaseManager struct {
	cfg         config.ReleaseManagerConfig
	newProvider ProviderFactory
	callback    promotion.SuccessCallback
}

// NewReleaseManager returns a ReleaseManager for the configured projects.
// When the configuration names a success webhook, every successful promotion
// calls it.
func NewReleaseManager(cfg config.ReleaseManagerConfig, newProvider ProviderFactory) *ReleaseManager {
	rm := &ReleaseManager{
		cfg:         cfg,
		newProvider: newProvider,
	}
	if cfg.SuccessWebhookURL != "" {
		rm.callback = promotion.NewWebhookCallback(cfg.SuccessWebhookURL)
	}
	return rm
}

type projectsResponse struct {
	Items []release.Project `json:"items"`
}

// promoteRequest is the body of POST
// /projects/:owner/:repo/releases/:id/promote.
type promoteRequest struct {
	// ReleaseVersion is optional.
	ReleaseVersion string         `json:"releaseVersion,omitempty"`
	User           promotion.User `json:"user"`
}

type promoteResponse struct {
	promotion.RunResult
	Error string `json:"error,omitempty"`
}

// RegisterRoutes adds the release manager's routes to r, relative to its
// mount point.
func (rm *ReleaseManager) RegisterRoutes(r gin.IRouter) {
	r.GET("/projects", rm.listProjects)
	r.GET("/projects/:owner/:repo/release-candidate", rm.getReleaseCandidate)
	r.POST("/projects/:owner/:repo/releases/:id/promote", rm.promoteReleaseCandidate)
}

func (rm *ReleaseManager) listProjects(c *gin.Context) {
	items := rm.cfg.Projects
	if items == nil {
		items = []release.Project{}
	}
	c.JSON(http.StatusOK, projectsResponse{Items: items})
}

// projectProvider resolves the project named by the request path and a Git
// provider for it.
func (rm *ReleaseManager) projectProvider(
	c *gin.Context,
) (release.Project, gitprovider.Interface, error) {
	owner, repo := c.Param("owner"), c.Param("repo")
	project, ok := rm.cfg.Project(owner, repo)
	if !ok {
		return project, nil, xhttp.Error(
			fmt.Errorf("project %s/%s is not configured", owner, repo),
			http.StatusNotFound,
		)
	}
	provider, err := rm.newProvider(c.Request.Context(), project)
	if err != nil {
		return project, nil, fmt.Errorf("error creating Git provider: %w", err)
	}
	return project, provider, nil
}

func (rm *ReleaseManager) getReleaseCandidate(c *gin.Context) {
	logger := logging.LoggerFromContext(c.Request.Context())
	project, provider, err := rm.projectProvider(c)
	if err != nil {
		logger.Error(err, "")
		_ = c.Error(err)
		return
	}
	releases, err := provider.ListReleases(c.Request.Context())
	if err != nil {
		logger.Error(err, "error listing releases")
		_ = c.Error(err)
		return
	}
	rc, err := release.LatestReleaseCandidate(releases, project.VersioningStrategy)
	if errors.Is(err, release.ErrNoReleaseCandidate) {
		_ = c.Error(xhttp.Error(err, http.StatusNotFound))
		return
	}
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rc)
}

func (rm *ReleaseManager) promoteReleaseCandidate(c *gin.Context) {
	logger := logging.LoggerFromContext(c.Request.Context())
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		_ = c.Error(
			xhttp.Error(fmt.Errorf("invalid release id: %w", err), http.StatusBadRequest),
		)
		return
	}
	var req promoteRequest
	if !xhttp.BindJSONOrError(c, &req) {
		return
	}
	project, provider, err := rm.projectProvider(c)
	if err != nil {
		logger.Error(err, "")
		_ = c.Error(err)
		return
	}
	rc, err := provider.GetRelease(c.Request.Context(), id)
	if errors.Is(err, gitprovider.ErrNotFound) {
		_ = c.Error(xhttp.Error(err, http.StatusNotFound))
		return
	}
	if err != nil {
		logger.Error(err, "error getting release")
		_ = c.Error(err)
		return
	}
	promoter, err := promotion.NewRCPromoter(provider, promotion.Options{
		Project:            project,
		RCRelease:          *rc,
		ReleaseVersion:     req.ReleaseVersion,
		User:               req.User,
		SuccessCallback:    rm.callback,
		TagMessageTemplate: rm.cfg.TagMessageTemplate,
	})
	if err != nil {
		_ = c.Error(xhttp.Error(err, http.StatusBadRequest))
		return
	}
	result, err := promoter.Run(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	resp := promoteResponse{RunResult: result}
	code := http.StatusOK
	if result.Error != nil {
		resp.Error = result.Error.Error()
		code = http.StatusBadGateway
	}
	c.JSON(code, resp)
}
