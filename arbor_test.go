package arbor_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/dsl"
)

func app() *domain.Definition {
	return dsl.Component("app").
		Viewports("main", "side").
		Default(dsl.Component("home")).
		Route("users/:id", dsl.Component("user")).
		RouteIn("help", "side", dsl.Component("help")).
		Definition()
}

func TestEngine_NavigateAndResume(t *testing.T) {
	store := memory.NewStore()
	eng, err := arbor.New(app(), arbor.WithStore(store))
	require.NoError(t, err)
	ctx := context.Background()

	snap, err := eng.Navigate(ctx, "s1", "users/7+help@side")
	require.NoError(t, err)
	assert.Equal(t, "users/7@main+help@side", snap.Path)
	assert.Len(t, snap.Viewports, 2)

	require.NoError(t, eng.Close(ctx, "s1"))
	assert.Equal(t, 0, eng.Sessions().Active())

	snap, err = eng.Current(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "users/7@main+help@side", snap.Path)

	// a fresh engine on the same store resumes the session
	eng2, err := arbor.New(app(), arbor.WithStore(store))
	require.NoError(t, err)
	snap, err = eng2.Navigate(ctx, "s1", "users/8+help@side")
	require.NoError(t, err)
	assert.Equal(t, "users/8@main+help@side", snap.Path)

	require.NoError(t, eng2.Delete(ctx, "s1"))
	_, err = store.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
}

func TestEngine_InvalidTree(t *testing.T) {
	a := dsl.Component("a")
	root := dsl.Component("app").Route("x", a).Route("x", dsl.Component("b")).Definition()

	_, err := arbor.New(root)
	assert.ErrorIs(t, err, domain.ErrAmbiguousRoute)
}

func TestEngine_RoutesFollowMode(t *testing.T) {
	root := dsl.Component("app").
		Route("home", dsl.Component("home")).
		Dependencies(dsl.Component("settings")).
		Definition()

	first, err := arbor.New(root)
	require.NoError(t, err)
	only, err := arbor.New(root, arbor.WithRoutingMode(domain.RoutingConfiguredOnly))
	require.NoError(t, err)

	assert.Len(t, first.Routes(), 2)
	assert.Len(t, only.Routes(), 1)
	assert.Equal(t, domain.RoutingConfiguredOnly, only.Mode())
}

func TestEngine_Handler(t *testing.T) {
	reg := prometheus.NewRegistry()
	eng, err := arbor.New(app(), arbor.WithMetrics(reg))
	require.NoError(t, err)
	h := eng.Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/navigate", strings.NewReader(`{"path":"users/1"}`)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `arbor_navigations_total{result="ok",router="default"} 2`)
}

func TestEngine_RouterHooks(t *testing.T) {
	var hooks []string
	eng, err := arbor.New(app(), arbor.WithRouterHooks(domain.RouterHooks{
		OnHook: func(_ context.Context, e *domain.HookEvent) {
			if e.Component == "user" {
				hooks = append(hooks, string(e.Hook))
			}
		},
	}))
	require.NoError(t, err)

	_, err = eng.Navigate(context.Background(), "s", "users/1")
	require.NoError(t, err)
	assert.Equal(t, []string{"canLoad", "load", "beforeBind", "afterBind", "afterAttach", "afterAttachChildren"}, hooks)
}
