package logger_test

import (
	"bytes"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/quietgrove/dossier/pkg/logger"
)

var _ = Describe("New", func() {
	It("creates a default text logger", func() {
		var buf bytes.Buffer
		l := logger.New(logger.WithWriter(&buf))
		l.Info("hello", "key", "value")

		output := buf.String()
		Expect(output).To(ContainSubstring("hello"))
		Expect(output).To(ContainSubstring("key"))
		Expect(output).To(ContainSubstring("value"))
	})

	It("respects debug level", func() {
		var buf bytes.Buffer
		l := logger.New(logger.WithWriter(&buf), logger.WithDebug(true))
		l.Debug("debug msg")

		Expect(buf.String()).To(ContainSubstring("debug msg"))
	})

	It("filters debug when not enabled", func() {
		var buf bytes.Buffer
		l := logger.New(logger.WithWriter(&buf), logger.WithDebug(false))
		l.Debug("hidden")

		Expect(buf.String()).To(BeEmpty())
	})

	It("creates a JSON logger", func() {
		var buf bytes.Buffer
		l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true))
		l.Info("structured", "count", 42)

		var parsed map[string]any
		err := json.Unmarshal(buf.Bytes(), &parsed)
		Expect(err).NotTo(HaveOccurred())
		Expect(parsed["msg"]).To(Equal("structured"))
		Expect(parsed["count"]).To(BeNumerically("==", 42))
	})

	It("creates a pretty logger", func() {
		var buf bytes.Buffer
		l := logger.New(logger.WithWriter(&buf), logger.WithPretty(true))
		l.Info("pretty output")

		Expect(buf.String()).To(ContainSubstring("pretty output"))
	})

	It("writes to multiple writers", func() {
		var a, b bytes.Buffer
		l := logger.New(logger.WithWriters(&a, &b))
		l.Info("fan out")

		Expect(a.String()).To(ContainSubstring("fan out"))
		Expect(b.String()).To(ContainSubstring("fan out"))
	})
})

var _ = Describe("Multi", func() {
	It("dispatches records to all loggers", func() {
		var a, b bytes.Buffer
		l := logger.Multi(
			logger.New(logger.WithWriter(&a)),
			logger.New(logger.WithWriter(&b), logger.WithJSON(true)),
		)
		l.Info("both")

		Expect(a.String()).To(ContainSubstring("both"))
		Expect(b.String()).To(ContainSubstring("both"))
	})

	It("respects each handler's level", func() {
		var a, b bytes.Buffer
		l := logger.Multi(
			logger.New(logger.WithWriter(&a), logger.WithDebug(true)),
			logger.New(logger.WithWriter(&b)),
		)
		l.Debug("debug only")

		Expect(a.String()).To(ContainSubstring("debug only"))
		Expect(b.String()).To(BeEmpty())
	})
})
