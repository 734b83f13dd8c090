package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func text(body string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, body)
	}
}

func serve(engine *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "/api/v1", r.BasePath())
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "/api/v2", r.BasePath())
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	students := NewDomainGroup("student-documents", "/students/:id/documents")
	students.GET("/templates", func(c *gin.Context) {
		c.String(http.StatusOK, "templates for "+c.Param("id"))
	})
	documents := NewDomainGroup("documents", "/documents")
	documents.DELETE("/sessions/:session_id", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	r.Register(students, documents).Setup()

	w := serve(engine, http.MethodGet, "/api/v1/students/42/documents/templates")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "templates for 42", w.Body.String())

	w = serve(engine, http.MethodDelete, "/api/v1/documents/sessions/abc")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = serve(engine, http.MethodGet, "/students/42/documents/templates")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDomainGroupMethods(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("test", "/test")
	g.GET("/items", text("get")).
		POST("/items", text("post")).
		DELETE("/items/:id", text("delete"))
	g.RegisterRoutes(engine.Group("/api/v1"))

	tests := []struct {
		method string
		target string
		body   string
	}{
		{http.MethodGet, "/api/v1/test/items", "get"},
		{http.MethodPost, "/api/v1/test/items", "post"},
		{http.MethodDelete, "/api/v1/test/items/7", "delete"},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			w := serve(engine, tt.method, tt.target)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.body, w.Body.String())
		})
	}
}

func TestDomainGroupMiddleware(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("test", "/test")
	g.Use(func(c *gin.Context) {
		c.Header("X-Group", "test")
		c.Next()
	})
	g.GET("/ping", text("pong"))
	g.RegisterRoutes(engine.Group("/api/v1"))

	w := serve(engine, http.MethodGet, "/api/v1/test/ping")
	assert.Equal(t, "test", w.Header().Get("X-Group"))
}

func TestDomainGroupSubgroups(t *testing.T) {
	engine := gin.New()
	parent := NewDomainGroup("documents", "/documents")
	child := parent.Group("jobs", "/jobs")
	child.GET("", text("jobs"))
	parent.RegisterRoutes(engine.Group("/api/v1"))

	w := serve(engine, http.MethodGet, "/api/v1/documents/jobs")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jobs", w.Body.String())
}

func TestRouterRoutes(t *testing.T) {
	r := NewRouter(gin.New())

	students := NewDomainGroup("student-documents", "/students/:id/documents")
	students.GET("/templates", text("")).Describe("templates offered for a student")
	students.POST("/download", text(""))

	documents := NewDomainGroup("documents", "/documents")
	documents.Group("jobs", "/jobs").GET("/", text("")).Describe("job history")

	r.Register(students, documents)

	routes := r.Routes()
	require.Len(t, routes, 3)
	assert.Equal(t, RouteInfo{
		Group:       "student-documents",
		Method:      http.MethodGet,
		Path:        "/api/v1/students/:id/documents/templates",
		Description: "templates offered for a student",
	}, routes[0])
	assert.Equal(t, "/api/v1/students/:id/documents/download", routes[1].Path)
	assert.Empty(t, routes[1].Description)
	assert.Equal(t, RouteInfo{
		Group:       "jobs",
		Method:      http.MethodGet,
		Path:        "/api/v1/documents/jobs",
		Description: "job history",
	}, routes[2])
}

func TestDescribeWithoutRoutes(t *testing.T) {
	g := NewDomainGroup("empty", "/empty").Describe("ignored")
	assert.Equal(t, "empty", g.Name())
	assert.Equal(t, "/empty", g.Prefix())
	assert.Empty(t, g.defs)
}
