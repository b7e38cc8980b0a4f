package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/quietgrove/dossier/pkg/chat"
	"github.com/quietgrove/dossier/pkg/dispatch/memory"
	"github.com/quietgrove/dossier/pkg/graph"
	graphmem "github.com/quietgrove/dossier/pkg/graph/inmemory"
	"github.com/quietgrove/dossier/pkg/ontology"
	"github.com/quietgrove/dossier/pkg/oracle"
	"github.com/quietgrove/dossier/pkg/recency/inmemory"
	"github.com/quietgrove/dossier/pkg/report"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

const longMessage = "I spent three months untangling the billing pipeline and documenting every edge case"

func postJSON(server *Server, path string, body any) *http.Response {
	payload, err := json.Marshal(body)
	Expect(err).ToNot(HaveOccurred())

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := server.app.Test(req)
	Expect(err).ToNot(HaveOccurred())
	return resp
}

func do(server *Server, method, path string) *http.Response {
	resp, err := server.app.Test(httptest.NewRequest(method, path, nil))
	Expect(err).ToNot(HaveOccurred())
	return resp
}

func decode(resp *http.Response, into any) {
	defer resp.Body.Close()
	Expect(json.NewDecoder(resp.Body).Decode(into)).To(Succeed())
}

var _ = Describe("Server", func() {
	var (
		server *Server
		driver *graphmem.Driver
		queue  *memory.Queue
	)

	BeforeEach(func() {
		store := inmemory.NewStore()
		queue = memory.NewQueue(16)
		driver = graphmem.NewDriver()

		reply := func(context.Context, []oracle.Message) (string, error) {
			return "Tell me more about that.", nil
		}
		chatSvc := chat.NewService(store, queue, reply, discard)
		server = NewServer(Config{ListenAddr: ":0"}, chatSvc, report.NewAggregator(driver), discard)
	})

	Describe("GET /health", func() {
		It("reports healthy", func() {
			resp := do(server, http.MethodGet, "/health")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body map[string]string
			decode(resp, &body)
			Expect(body["status"]).To(Equal("healthy"))
		})
	})

	Describe("POST /api/chat", func() {
		It("replies and echoes the session id", func() {
			resp := postJSON(server, "/api/chat", ChatRequest{
				SessionID: "session-1",
				Message:   longMessage,
			})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var result chat.Result
			decode(resp, &result)
			Expect(result.SessionID).To(Equal("session-1"))
			Expect(result.Reply).To(Equal("Tell me more about that."))
			Expect(result.Queued).To(BeTrue())
		})

		It("generates a session id when none is given", func() {
			resp := postJSON(server, "/api/chat", ChatRequest{Message: "hi there"})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var result chat.Result
			decode(resp, &result)
			Expect(result.SessionID).NotTo(BeEmpty())
		})

		It("rejects an empty message", func() {
			resp := postJSON(server, "/api/chat", ChatRequest{SessionID: "session-1"})
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

			var body ErrorResponse
			decode(resp, &body)
			Expect(body.Error).To(ContainSubstring("message"))
		})

		It("rejects a malformed body", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader([]byte("{not json")))
			req.Header.Set("Content-Type", "application/json")
			resp, err := server.app.Test(req)
			Expect(err).ToNot(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("session endpoints", func() {
		BeforeEach(func() {
			resp := postJSON(server, "/api/chat", ChatRequest{
				SessionID: "session-1",
				Message:   longMessage,
			})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})

		It("returns history oldest first", func() {
			resp := do(server, http.MethodGet, "/api/session/session-1/history")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body struct {
				SessionID string      `json:"session_id"`
				History   []chat.Turn `json:"history"`
				Count     int         `json:"count"`
			}
			decode(resp, &body)
			Expect(body.SessionID).To(Equal("session-1"))
			Expect(body.Count).To(Equal(2))
			Expect(body.History[0].Role).To(Equal("user"))
			Expect(body.History[1].Role).To(Equal("assistant"))
		})

		It("reports session info", func() {
			resp := do(server, http.MethodGet, "/api/session/session-1")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body struct {
				MessageCount int  `json:"message_count"`
				TTLSeconds   int  `json:"ttl_seconds"`
				Exists       bool `json:"exists"`
			}
			decode(resp, &body)
			Expect(body.Exists).To(BeTrue())
			Expect(body.MessageCount).To(Equal(2))
			Expect(body.TTLSeconds).To(BeNumerically(">", 0))
		})

		It("clears a session and reports prior existence", func() {
			resp := do(server, http.MethodDelete, "/api/session/session-1")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body struct {
				Cleared bool `json:"cleared"`
			}
			decode(resp, &body)
			Expect(body.Cleared).To(BeTrue())

			resp = do(server, http.MethodDelete, "/api/session/session-1")
			decode(resp, &body)
			Expect(body.Cleared).To(BeFalse())
		})
	})

	Describe("report endpoints", func() {
		BeforeEach(func() {
			ctx := context.Background()
			for _, quote := range []string{"first quote", "second quote", "third quote"} {
				_, err := driver.Persist(ctx, "session-1", graph.Observation{
					Skill:       "Collaboration",
					SkillDomain: "Interacting with Others",
					Evidence:    quote,
				})
				Expect(err).ToNot(HaveOccurred())
			}
			_, err := driver.Persist(ctx, "session-1", graph.Observation{
				Trait:          "Openness",
				TraitIntensity: ontology.IntensityHigh,
				Evidence:       "trait quote",
			})
			Expect(err).ToNot(HaveOccurred())
		})

		It("returns the full candidate report", func() {
			resp := do(server, http.MethodGet, "/api/report/session-1")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var rep report.CandidateReport
			decode(resp, &rep)
			Expect(rep.SessionID).To(Equal("session-1"))
			Expect(rep.Summary.TotalSkillEvidence).To(Equal(3))
			Expect(rep.Summary.StrongDomains).To(Equal([]string{"Interacting with Others"}))
			Expect(rep.Traits).To(HaveLen(1))
		})

		It("returns the skills report", func() {
			resp := do(server, http.MethodGet, "/api/report/session-1/skills")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var rep report.SkillsReport
			decode(resp, &rep)
			Expect(rep.SkillsByDomain).To(HaveKey("Interacting with Others"))
			Expect(rep.TotalEvidence).To(Equal(3))
		})

		It("returns the traits report", func() {
			resp := do(server, http.MethodGet, "/api/report/session-1/traits")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var rep report.TraitsReport
			decode(resp, &rep)
			Expect(rep.Traits).To(HaveLen(1))
			Expect(rep.Traits[0].Trait).To(Equal("Openness"))
			Expect(rep.Traits[0].Intensity).To(Equal(ontology.IntensityHigh))
		})

		It("returns a domain deep dive for an escaped domain name", func() {
			path := "/api/report/session-1/domain/" + url.PathEscape("Interacting with Others")
			resp := do(server, http.MethodGet, path)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var dive report.DomainDeepDive
			decode(resp, &dive)
			Expect(dive.Domain).To(Equal("Interacting with Others"))
			Expect(dive.Skills["Collaboration"]).To(HaveLen(3))
		})

		It("rejects an unknown domain", func() {
			resp := do(server, http.MethodGet, "/api/report/session-1/domain/Juggling")
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("returns an empty report for an unknown session", func() {
			resp := do(server, http.MethodGet, "/api/report/never-seen")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var rep report.CandidateReport
			decode(resp, &rep)
			Expect(rep.Summary.SkillsDemonstrated).To(BeZero())
		})
	})
})
