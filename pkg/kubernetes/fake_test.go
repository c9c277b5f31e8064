package kubernetes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFakeObjectsProvider_Defaults(t *testing.T) {
	f := &FakeObjectsProvider{}

	resp, err := f.GetKubernetesObjectsByEntity(context.Background(), ObjectsByEntityRequest{})
	require.NoError(t, err)
	require.Equal(t, &ObjectsByEntityResponse{}, resp)

	resp, err = f.GetCustomResourcesByEntity(
		context.Background(),
		CustomResourcesByEntityRequest{},
	)
	require.NoError(t, err)
	require.Equal(t, &ObjectsByEntityResponse{}, resp)
}
