package upload

import (
	"context"
	"io"
)

// NewProgressReader wraps r so that fn receives the read progress as a
// percentage of total. Reading stops with ctx.Err() once ctx is done.
func NewProgressReader(ctx context.Context, r io.Reader, total int64, fn func(int)) *ProgressReader {
	return &ProgressReader{ctx: ctx, r: r, total: total, last: -1, fn: fn}
}

type ProgressReader struct {
	ctx   context.Context
	r     io.Reader
	total int64
	read  int64
	last  int
	fn    func(int)
}

func (p *ProgressReader) Read(buf []byte) (int, error) {
	if err := p.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := p.r.Read(buf)
	p.read += int64(n)
	if p.fn != nil && p.total > 0 {
		percent := int(p.read * 100 / p.total)
		if percent > 100 {
			percent = 100
		}
		if percent != p.last {
			p.last = percent
			p.fn(percent)
		}
	}
	return n, err
}
