package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/leads/internal/http/handler"
	"basegraph.app/leads/internal/model"
	"basegraph.app/leads/internal/service"
)

var _ = Describe("MessageHandler", func() {
	var (
		router *gin.Engine
		svc    *mockMessageService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockMessageService{}
		h := handler.NewMessageHandler(svc)
		router.POST("/leads/:id/messages", h.Append)
		router.GET("/leads/:id/messages", h.List)
	})

	post := func(path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("appends a message and returns 201", func() {
		svc.appendFn = func(_ context.Context, leadID int64, role model.MessageRole, text string) (*model.Message, error) {
			return &model.Message{ID: 100, LeadID: leadID, Role: role, Text: text, CreatedAt: time.Now()}, nil
		}
		w := post("/leads/5/messages", `{"role":"agent","text":"Hi, how can I help?"}`)
		Expect(w.Code).To(Equal(http.StatusCreated))

		var msg map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &msg)).To(Succeed())
		Expect(msg["lead_id"]).To(Equal("5"))
		Expect(msg["role"]).To(Equal("agent"))
	})

	It("rejects a malformed role", func() {
		w := post("/leads/5/messages", `{"role":"system","text":"hi"}`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 404 when the lead does not exist", func() {
		svc.appendFn = func(context.Context, int64, model.MessageRole, string) (*model.Message, error) {
			return nil, service.ErrLeadNotFound
		}
		w := post("/leads/5/messages", `{"role":"user","text":"hi"}`)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("lists messages oldest first", func() {
		svc.listFn = func(_ context.Context, leadID int64) ([]model.Message, error) {
			return []model.Message{{ID: 1, LeadID: leadID, Text: "first"}, {ID: 2, LeadID: leadID, Text: "second"}}, nil
		}
		req := httptest.NewRequest(http.MethodGet, "/leads/5/messages", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		var msgs []map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &msgs)).To(Succeed())
		Expect(msgs).To(HaveLen(2))
		Expect(msgs[0]["text"]).To(Equal("first"))
	})
})
