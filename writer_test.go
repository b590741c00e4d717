package cftable_test

import (
	"bytes"
	"errors"

	"github.com/bsm/cftable"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Writer", func() {
	var buf *bytes.Buffer
	var subject *cftable.Writer

	BeforeEach(func() {
		buf = new(bytes.Buffer)
		subject = cftable.NewWriter(cftable.NewStreamSink(buf), nil)
	})

	It("should write empty tables", func() {
		Expect(subject.Start()).To(Succeed())
		Expect(subject.Finish()).To(Succeed())

		// header + sentinel leaf block + metadata + footer
		Expect(buf.Len()).To(Equal(8 + 5 + 12 + 12))
		Expect(buf.String()[buf.Len()-8:]).To(Equal("\x43\x46\x54\xBE\x1F\x7a\x65\xDB"))

		read, err := cftable.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
		Expect(err).NotTo(HaveOccurred())
		Expect(read.NumValues()).To(Equal(uint64(0)))
		Expect(read.Metadata().Levels).To(Equal(0))

		_, err = read.Get(0)
		Expect(err).To(MatchError(cftable.ErrNotFound))
	})

	It("should require start before append", func() {
		Expect(subject.Append(33)).To(MatchError(`cftable: writer was not started`))
		Expect(subject.Start()).To(Succeed())
		Expect(subject.Append(33)).To(Succeed())
	})

	It("should prevent a second start", func() {
		Expect(subject.Start()).To(Succeed())
		Expect(subject.Start()).To(MatchError(`cftable: writer was already started`))
	})

	It("should prevent use after finish", func() {
		Expect(subject.Start()).To(Succeed())
		Expect(subject.Append(33)).To(Succeed())
		Expect(subject.Finish()).To(Succeed())

		Expect(subject.Append(34)).To(MatchError(`cftable: is closed`))
		Expect(subject.Finish()).To(MatchError(`cftable: is closed`))
		Expect(subject.Start()).To(MatchError(`cftable: is closed`))
	})

	It("should store the identifier", func() {
		subject = cftable.NewWriter(cftable.NewStreamSink(buf), &cftable.WriterOptions{Identifier: "test"})
		Expect(subject.Start()).To(Succeed())
		Expect(subject.Finish()).To(Succeed())
		Expect(buf.Len()).To(Equal(8 + 5 + 9 + 12))

		read, err := cftable.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
		Expect(err).NotTo(HaveOccurred())
		Expect(read.Metadata().Identifier).To(Equal("test"))
	})

	It("should fail sticky on sink errors", func() {
		sink := &failSink{okAppends: 1, err: errors.New("disk on fire")}
		subject = cftable.NewWriter(sink, &cftable.WriterOptions{BlockSize: 16})
		Expect(subject.Start()).To(Succeed())

		var err error
		for i := 0; i < 100; i++ {
			if err = subject.Append(uint32(i)); err != nil {
				break
			}
		}
		Expect(err).To(MatchError(`disk on fire`))

		// every further call reports the original failure
		Expect(subject.Append(1)).To(MatchError(`disk on fire`))
		Expect(subject.Finish()).To(MatchError(`disk on fire`))
		Expect(subject.Start()).To(MatchError(`disk on fire`))
	})

	It("should fail sticky on close errors", func() {
		sink := &failSink{okAppends: 1 << 20, err: errors.New("close refused"), failClose: true}
		subject = cftable.NewWriter(sink, nil)
		Expect(subject.Start()).To(Succeed())
		Expect(subject.Append(33)).To(Succeed())
		Expect(subject.Finish()).To(MatchError(`close refused`))
		Expect(subject.Append(34)).To(MatchError(`close refused`))
	})

	It("should build trees on undersized block budgets", func() {
		// a budget below the size of a single index entry must still
		// produce a valid tree
		read, err := seedReader(100, &cftable.WriterOptions{BlockSize: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(read.NumValues()).To(Equal(uint64(100)))
		Expect(read.Metadata().Levels).To(BeNumerically(">=", 2))

		for i := uint64(0); i < 100; i++ {
			Expect(read.Get(i)).To(Equal(seedValue(i)), "for %d", i)
		}
		_, err = read.Get(100)
		Expect(err).To(MatchError(cftable.ErrNotFound))
	})

	It("should build multi-level trees", func() {
		read, err := seedReader(10000, &cftable.WriterOptions{BlockSize: 64})
		Expect(err).NotTo(HaveOccurred())
		Expect(read.NumValues()).To(Equal(uint64(10000)))
		Expect(read.Metadata().Levels).To(BeNumerically(">=", 2))

		for i := uint64(0); i < 10000; i += 13 {
			Expect(read.Get(i)).To(Equal(seedValue(i)), "for %d", i)
		}
		Expect(read.Get(9999)).To(Equal(seedValue(9999)))

		_, err = read.Get(10000)
		Expect(err).To(MatchError(cftable.ErrNotFound))
	})
})

// --------------------------------------------------------------------

type failSink struct {
	okAppends int
	err       error
	failClose bool
}

func (s *failSink) Append(p []byte) error {
	if s.okAppends < 1 {
		return s.err
	}
	s.okAppends--
	return nil
}

func (s *failSink) Flush() error { return nil }
func (s *failSink) Sync() error  { return nil }

func (s *failSink) Close() error {
	if s.failClose {
		return s.err
	}
	return nil
}
