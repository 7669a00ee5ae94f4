package handler_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/leads/internal/changefeed"
	"basegraph.app/leads/internal/http/handler"
	"basegraph.app/leads/internal/model"
)

type sseFrame struct {
	event string
	data  string
}

// readFrames parses the response body into frames until it ends.
func readFrames(resp *http.Response) <-chan sseFrame {
	frames := make(chan sseFrame, 32)
	go func() {
		defer close(frames)
		scanner := bufio.NewScanner(resp.Body)
		var cur sseFrame
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case line == "":
				if cur.event != "" || cur.data != "" {
					frames <- cur
				}
				cur = sseFrame{}
			case strings.HasPrefix(line, "event:"):
				cur.event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				cur.data += strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			}
		}
	}()
	return frames
}

var _ = Describe("StreamHandler", func() {
	var (
		hub    *changefeed.Hub
		server *httptest.Server
		ctx    context.Context
		cancel context.CancelFunc
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		hub = changefeed.NewHub(2, nil)
		h := handler.NewStreamHandler(hub, 50*time.Millisecond)

		router := gin.New()
		router.GET("/leads/stream", h.Leads)
		router.GET("/leads/:id/stream", h.Lead)
		server = httptest.NewServer(router)
		ctx, cancel = context.WithCancel(context.Background())
	})

	AfterEach(func() {
		cancel()
		hub.Close()
		server.Close()
	})

	open := func(path string) (*http.Response, <-chan sseFrame) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+path, nil)
		Expect(err).NotTo(HaveOccurred())
		resp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(resp.Header.Get("Content-Type")).To(HavePrefix("text/event-stream"))
		frames := readFrames(resp)

		var ready sseFrame
		Eventually(frames).Should(Receive(&ready))
		Expect(ready.event).To(Equal(handler.EventReady))
		return resp, frames
	}

	// nextFrame skips heartbeats and returns the first frame of the given kind.
	nextFrame := func(frames <-chan sseFrame, kind string) sseFrame {
		for i := 0; i < 50; i++ {
			var f sseFrame
			Eventually(frames).Should(Receive(&f))
			if f.event == kind {
				return f
			}
		}
		Fail("no " + kind + " frame received")
		return sseFrame{}
	}

	nextChange := func(frames <-chan sseFrame) model.ChangeEvent {
		var event model.ChangeEvent
		Expect(json.Unmarshal([]byte(nextFrame(frames, handler.EventChange).data), &event)).To(Succeed())
		return event
	}

	It("streams lead changes published after connecting", func() {
		resp, frames := open("/leads/stream")
		defer resp.Body.Close()

		lead := model.Lead{ID: 11, CompanyName: "Acme", Version: 2}
		Expect(hub.Publish(ctx, model.LeadChanged(model.ChangeUpdated, lead))).To(Succeed())

		event := nextChange(frames)
		Expect(event.Kind()).To(Equal("lead.updated"))
		Expect(event.Lead.ID).To(Equal(int64(11)))
		Expect(event.Lead.Version).To(Equal(int64(2)))
	})

	It("scopes a lead stream to that lead and its messages", func() {
		resp, frames := open("/leads/11/stream")
		defer resp.Body.Close()

		Expect(hub.Publish(ctx, model.LeadChanged(model.ChangeUpdated, model.Lead{ID: 12}))).To(Succeed())
		Expect(hub.Publish(ctx, model.MessageCreated(model.Message{ID: 5, LeadID: 11, Role: model.MessageRoleUser, Text: "hi"}))).To(Succeed())

		event := nextChange(frames)
		Expect(event.Kind()).To(Equal("message.created"))
		Expect(event.Message.Text).To(Equal("hi"))
	})

	It("sends heartbeats while idle", func() {
		resp, frames := open("/leads/stream")
		defer resp.Body.Close()

		f := nextFrame(frames, handler.EventPing)
		Expect(f.data).NotTo(BeEmpty())
	})

	It("tells the client when the feed shuts down", func() {
		resp, frames := open("/leads/stream")
		defer resp.Body.Close()

		hub.Close()

		nextFrame(frames, handler.EventEvicted)
		Eventually(frames).Should(BeClosed())
	})

	It("releases the subscription when the client disconnects", func() {
		resp, _ := open("/leads/stream")
		Eventually(hub.Len).Should(Equal(1))

		cancel()
		resp.Body.Close()

		Eventually(hub.Len).Should(Equal(0))
	})
})
