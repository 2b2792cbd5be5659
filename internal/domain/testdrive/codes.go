package testdrive

import (
	"sync/atomic"
	"time"

	"github.com/speps/go-hashids/v2"
)

// CodeMinter produces short customer-facing confirmation codes. The
// backend does not store them; they exist for the customer's records
// only, so uniqueness within a process lifetime is enough.
type CodeMinter struct {
	h   *hashids.HashID
	seq atomic.Int64
}

func NewCodeMinter(salt string) (*CodeMinter, error) {
	data := hashids.NewData()
	data.Salt = salt
	data.MinLength = 8
	data.Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	h, err := hashids.NewWithData(data)
	if err != nil {
		return nil, err
	}
	return &CodeMinter{h: h}, nil
}

func (m *CodeMinter) Mint() string {
	n := m.seq.Add(1)
	code, err := m.h.EncodeInt64([]int64{time.Now().Unix(), n})
	if err != nil {
		// Only reachable with negative inputs, which Unix time and the
		// counter never produce.
		return ""
	}
	return code
}
