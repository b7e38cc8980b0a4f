package extract_test

import (
	"context"
	"errors"
	"io"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/quietgrove/dossier/pkg/extract"
	"github.com/quietgrove/dossier/pkg/ontology"
	"github.com/quietgrove/dossier/pkg/oracle"
)

func stubOracle(response string, err error) oracle.CallFunc {
	return func(_ context.Context, _ []oracle.Message) (string, error) {
		return response, err
	}
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

var _ = Describe("Extractor", func() {
	It("sends the registry instructions and the text to the oracle", func() {
		var gotMessages []oracle.Message
		call := func(_ context.Context, messages []oracle.Message) (string, error) {
			gotMessages = messages
			return `{"observations":[]}`, nil
		}

		e := extract.NewExtractor(call, discard)
		_, err := e.Extract(context.Background(), "some candidate text")
		Expect(err).NotTo(HaveOccurred())

		Expect(gotMessages).To(HaveLen(2))
		Expect(gotMessages[0].Role).To(Equal("system"))
		Expect(gotMessages[0].Content).To(Equal(ontology.Instructions()))
		Expect(gotMessages[1].Role).To(Equal("user"))
		Expect(gotMessages[1].Content).To(ContainSubstring("some candidate text"))
	})

	It("parses an observations envelope", func() {
		e := extract.NewExtractor(stubOracle(`{
			"observations": [
				{"skill": "Collaboration", "trait": "Conscientiousness", "trait_intensity": "High", "evidence": "quote one"},
				{"trait": "Openness", "evidence": "quote two"}
			]
		}`, nil), discard)

		obs, err := e.Extract(context.Background(), "text")
		Expect(err).NotTo(HaveOccurred())
		Expect(obs).To(HaveLen(2))
		Expect(obs[0].Skill).To(Equal("Collaboration"))
		Expect(obs[0].TraitIntensity).To(Equal(ontology.IntensityHigh))
		Expect(obs[1].Trait).To(Equal("Openness"))
	})

	It("parses a single bare observation object", func() {
		e := extract.NewExtractor(stubOracle(`{"skill": "Communication", "evidence": "a quote"}`, nil), discard)

		obs, err := e.Extract(context.Background(), "text")
		Expect(err).NotTo(HaveOccurred())
		Expect(obs).To(HaveLen(1))
		Expect(obs[0].Skill).To(Equal("Communication"))
	})

	It("parses a bare array of observations", func() {
		e := extract.NewExtractor(stubOracle(`[{"skill": "Influence", "evidence": "q"}]`, nil), discard)

		obs, err := e.Extract(context.Background(), "text")
		Expect(err).NotTo(HaveOccurred())
		Expect(obs).To(HaveLen(1))
		Expect(obs[0].Skill).To(Equal("Influence"))
	})

	It("tolerates markdown fencing around the JSON", func() {
		e := extract.NewExtractor(stubOracle("```json\n{\"observations\":[{\"skill\":\"Adaptability\",\"evidence\":\"q\"}]}\n```", nil), discard)

		obs, err := e.Extract(context.Background(), "text")
		Expect(err).NotTo(HaveOccurred())
		Expect(obs).To(HaveLen(1))
		Expect(obs[0].Skill).To(Equal("Adaptability"))
	})

	It("treats a malformed response as zero observations, not an error", func() {
		e := extract.NewExtractor(stubOracle("I could not find anything of note.", nil), discard)

		obs, err := e.Extract(context.Background(), "text")
		Expect(err).NotTo(HaveOccurred())
		Expect(obs).To(BeEmpty())
	})

	It("returns an empty result for an empty observations array", func() {
		e := extract.NewExtractor(stubOracle(`{"observations":[]}`, nil), discard)

		obs, err := e.Extract(context.Background(), "text")
		Expect(err).NotTo(HaveOccurred())
		Expect(obs).To(BeEmpty())
	})

	It("propagates connection-level failures", func() {
		e := extract.NewExtractor(stubOracle("", errors.New("connection refused")), discard)

		_, err := e.Extract(context.Background(), "text")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("connection refused"))
	})
})
