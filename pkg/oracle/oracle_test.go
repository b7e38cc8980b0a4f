package oracle_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/quietgrove/dossier/pkg/oracle"
)

var _ = Describe("New", func() {
	It("rejects unknown providers", func() {
		_, err := oracle.New(oracle.Config{Provider: "cohere"})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("unsupported provider"))
	})

	It("defaults to openai when provider is empty", func() {
		call, err := oracle.New(oracle.Config{APIKey: "test-key"})
		Expect(err).NotTo(HaveOccurred())
		Expect(call).NotTo(BeNil())
	})
})

var _ = Describe("openai caller", func() {
	var (
		server   *httptest.Server
		received map[string]any
	)

	BeforeEach(func() {
		received = nil
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &received)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{
					{"message": map[string]any{"content": `{"observations":[]}`}},
				},
			})
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	It("sends messages and requests JSON mode", func() {
		call, err := oracle.New(oracle.Config{
			Provider: oracle.ProviderOpenAI,
			APIKey:   "test-key",
			BaseURL:  server.URL,
			JSONMode: true,
		})
		Expect(err).NotTo(HaveOccurred())

		out, err := call(context.Background(), []oracle.Message{
			{Role: "system", Content: "instructions"},
			{Role: "user", Content: "text"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(`{"observations":[]}`))

		Expect(received["model"]).To(Equal("gpt-4o-mini"))
		Expect(received["response_format"]).To(HaveKeyWithValue("type", "json_object"))
		msgs := received["messages"].([]any)
		Expect(msgs).To(HaveLen(2))
	})

	It("surfaces non-200 responses as errors", func() {
		failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer failing.Close()

		call, err := oracle.New(oracle.Config{
			Provider: oracle.ProviderOpenAI,
			APIKey:   "test-key",
			BaseURL:  failing.URL,
		})
		Expect(err).NotTo(HaveOccurred())

		_, err = call(context.Background(), []oracle.Message{{Role: "user", Content: "hi"}})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("status 502"))
	})

	It("propagates connection failures", func() {
		call, err := oracle.New(oracle.Config{
			Provider: oracle.ProviderOpenAI,
			APIKey:   "test-key",
			BaseURL:  "http://127.0.0.1:1",
		})
		Expect(err).NotTo(HaveOccurred())

		_, err = call(context.Background(), []oracle.Message{{Role: "user", Content: "hi"}})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("anthropic caller", func() {
	It("lifts the system message out of the message list", func() {
		var received map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &received)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"content": []map[string]any{{"type": "text", "text": "reply"}},
			})
		}))
		defer server.Close()

		call, err := oracle.New(oracle.Config{
			Provider: oracle.ProviderAnthropic,
			APIKey:   "test-key",
			BaseURL:  server.URL,
		})
		Expect(err).NotTo(HaveOccurred())

		out, err := call(context.Background(), []oracle.Message{
			{Role: "system", Content: "be helpful"},
			{Role: "user", Content: "hello"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("reply"))

		Expect(received["system"]).To(Equal("be helpful"))
		msgs := received["messages"].([]any)
		Expect(msgs).To(HaveLen(1))
	})
})

var _ = Describe("ollama caller", func() {
	It("requests json format only in JSON mode", func() {
		var received map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &received)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"message": map[string]any{"content": "{}"},
				"done":    true,
			})
		}))
		defer server.Close()

		call, err := oracle.New(oracle.Config{
			Provider: oracle.ProviderOllama,
			BaseURL:  server.URL,
			JSONMode: true,
		})
		Expect(err).NotTo(HaveOccurred())

		_, err = call(context.Background(), []oracle.Message{{Role: "user", Content: "hi"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(received["format"]).To(Equal("json"))
		Expect(received["stream"]).To(BeFalse())
	})
})
