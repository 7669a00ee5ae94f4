package middleware_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/leads/common/logger"
	"basegraph.app/leads/internal/http/middleware"
)

var _ = Describe("middleware", func() {
	var (
		router *gin.Engine
		seen   logger.LogFields
	)

	BeforeEach(func() {
		seen = logger.LogFields{}
		gin.SetMode(gin.TestMode)
		router = gin.New()
		router.HandleMethodNotAllowed = true
		router.Use(middleware.CORS(), middleware.Recovery(), middleware.Logger())
		router.GET("/ok", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
		router.GET("/panic", func(c *gin.Context) { panic("kaboom") })
		router.GET("/leads/:id", func(c *gin.Context) {
			seen = logger.GetLogFields(c.Request.Context())
			c.Status(http.StatusNoContent)
		})
	})

	serve := func(method, path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(method, path, nil))
		return w
	}

	It("adds permissive CORS headers to every response", func() {
		w := serve(http.MethodGet, "/ok")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Access-Control-Allow-Origin")).To(Equal("*"))
		Expect(w.Header().Get("Access-Control-Allow-Methods")).To(ContainSubstring("PATCH"))
	})

	It("answers preflight on any path with an empty 200", func() {
		for _, path := range []string{"/ok", "/leads/123", "/nowhere"} {
			w := serve(http.MethodOptions, path)
			Expect(w.Code).To(Equal(http.StatusOK), path)
			Expect(w.Body.Len()).To(BeZero())
			Expect(w.Header().Get("Access-Control-Allow-Headers")).To(ContainSubstring("Apikey"))
		}
	})

	It("turns a panic into a 500 with the panic message", func() {
		w := serve(http.MethodGet, "/panic")
		Expect(w.Code).To(Equal(http.StatusInternalServerError))
		Expect(w.Body.String()).To(ContainSubstring("kaboom"))
	})

	Describe("request logging", func() {
		var lines *bytes.Buffer

		BeforeEach(func() {
			lines = &bytes.Buffer{}
			prev := slog.Default()
			slog.SetDefault(slog.New(logger.NewTraceHandler(slog.NewJSONHandler(lines, nil))))
			DeferCleanup(func() { slog.SetDefault(prev) })
		})

		lastLine := func() map[string]any {
			raw := bytes.TrimSpace(lines.Bytes())
			if i := bytes.LastIndexByte(raw, '\n'); i >= 0 {
				raw = raw[i+1:]
			}
			var entry map[string]any
			ExpectWithOffset(1, json.Unmarshal(raw, &entry)).To(Succeed())
			return entry
		}

		It("tags single-lead routes with lead_id for the handler and the request line", func() {
			w := serve(http.MethodGet, "/leads/123")
			Expect(w.Code).To(Equal(http.StatusNoContent))
			Expect(seen.LeadID).NotTo(BeNil())
			Expect(*seen.LeadID).To(Equal(int64(123)))

			entry := lastLine()
			Expect(entry["msg"]).To(Equal("request"))
			Expect(entry["route"]).To(Equal("/leads/:id"))
			Expect(entry["lead_id"]).To(BeNumerically("==", 123))
		})

		It("leaves lead_id off when the path segment is not an id", func() {
			serve(http.MethodGet, "/leads/abc")
			Expect(seen.LeadID).To(BeNil())
			Expect(lastLine()).NotTo(HaveKey("lead_id"))
		})

		It("leaves lead_id off routes without one", func() {
			serve(http.MethodGet, "/ok")
			entry := lastLine()
			Expect(entry["path"]).To(Equal("/ok"))
			Expect(entry).NotTo(HaveKey("lead_id"))
		})
	})
})
