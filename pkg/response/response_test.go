package response_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/playback/pkg/response"
)

var _ = Describe("Registry", func() {
	var reg *response.Registry

	BeforeEach(func() {
		reg = response.DefaultRegistry()
	})

	It("registers the stock types in order", func() {
		Expect(reg.TypeIDs()).To(Equal([]string{"OUT", "ERR", "EXC", "FIL", "RET", "SRV", "CLI"}))
	})

	It("rejects type ids of the wrong width", func() {
		err := response.NewRegistry().Register("OUTPUT", response.RawFactory("OUTPUT"))
		Expect(err).To(HaveOccurred())
	})

	It("rejects nil factories", func() {
		Expect(response.NewRegistry().Register("OUT", nil)).NotTo(Succeed())
	})

	It("builds raw responses from a chunk", func() {
		resp, ok, err := reg.Build("->OUT:hello\nworld")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(resp.TypeID()).To(Equal("OUT"))
		Expect(resp.Text()).To(Equal("hello\nworld"))
	})

	It("decodes exit codes", func() {
		resp, ok, err := reg.Build("->EXC: 3")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(resp).To(Equal(response.ExitCode{Code: 3}))
	})

	It("reports malformed exit codes as decode errors", func() {
		_, ok, err := reg.Build("->EXC:boom")
		Expect(ok).To(BeTrue())

		var decodeErr *response.DecodeError
		Expect(errors.As(err, &decodeErr)).To(BeTrue())
		Expect(decodeErr.TypeID).To(Equal("EXC"))
	})

	It("skips unknown type codes", func() {
		resp, ok, err := reg.Build("->XYZ:ignored")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
		Expect(resp).To(BeNil())
	})

	Describe("BuildAll", func() {
		It("keeps only registered chunks in order", func() {
			narrow := response.NewRegistry().MustRegister("OUT", response.RawFactory("OUT"))
			responses, err := narrow.BuildAll([]string{"->OUT:a", "->ERR:b", "->OUT:c"})
			Expect(err).NotTo(HaveOccurred())
			Expect(responses).To(HaveLen(2))
			Expect(responses[0].Text()).To(Equal("a"))
			Expect(responses[1].Text()).To(Equal("c"))
		})

		It("returns an empty slice for an empty generation", func() {
			responses, err := reg.BuildAll(nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(responses).To(BeEmpty())
		})
	})
})
