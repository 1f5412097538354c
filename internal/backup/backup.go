// Package backup exports and restores the persisted storefront records as a
// gzip-compressed stream of newline-delimited JSON envelopes:
//
//	{"key":"aur_cart","value":[...]}
package backup

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/aurelius/storefront/internal/storage"
)

const maxLineSize = 16 << 20

// Envelope is one record of a backup stream.
type Envelope struct {
	Key   storage.Key
	Value []byte
}

// Stats summarizes an export or import.
type Stats struct {
	Written int
	Skipped int
}

// Export writes every record present in gw to w. Records that are not valid
// JSON are skipped.
func Export(ctx context.Context, gw *storage.Gateway, w io.Writer) (Stats, error) {
	values := make([][]byte, len(storage.Keys))

	g, gctx := errgroup.WithContext(ctx)
	for i, key := range storage.Keys {
		g.Go(func() error {
			if data, ok := gw.Raw(gctx, key); ok {
				values[i] = data
			}
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{}, errors.Wrap(err, "read records")
	}

	gz := pgzip.NewWriter(w)
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	var (
		stats   Stats
		compact bytes.Buffer
	)
	for i, key := range storage.Keys {
		if values[i] == nil {
			continue
		}
		compact.Reset()
		if err := json.Compact(&compact, values[i]); err != nil {
			stats.Skipped++
			continue
		}

		e.Reset()
		encodeEnvelope(e, Envelope{Key: key, Value: compact.Bytes()})
		e.RawStr("\n")
		if _, err := gz.Write(e.Bytes()); err != nil {
			return stats, errors.Wrapf(err, "write %s", key)
		}
		stats.Written++
	}

	if err := gz.Close(); err != nil {
		return stats, errors.Wrap(err, "close gzip writer")
	}
	return stats, nil
}

// Import restores the envelopes read from r into gw. Envelopes for unknown
// keys are skipped; records absent from the stream are left untouched.
func Import(ctx context.Context, gw *storage.Gateway, r io.Reader) (Stats, error) {
	gz, err := pgzip.NewReader(r)
	if err != nil {
		return Stats{}, errors.Wrap(err, "create gzip reader")
	}
	defer func() { _ = gz.Close() }()

	var stats Stats
	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for line := 1; scanner.Scan(); line++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		env, err := decodeEnvelope(raw)
		if err != nil {
			return stats, errors.Wrapf(err, "line %d", line)
		}
		if !env.Key.Known() {
			stats.Skipped++
			continue
		}
		if err := gw.PutRaw(ctx, env.Key, env.Value); err != nil {
			return stats, errors.Wrapf(err, "line %d", line)
		}
		stats.Written++
	}
	if err := scanner.Err(); err != nil {
		return stats, errors.Wrap(err, "scan")
	}
	return stats, nil
}

func encodeEnvelope(e *jx.Encoder, env Envelope) {
	e.ObjStart()
	e.FieldStart("key")
	e.Str(string(env.Key))
	e.FieldStart("value")
	e.Raw(env.Value)
	e.ObjEnd()
}

func decodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	d := jx.DecodeBytes(data)
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "key":
			s, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "key")
			}
			env.Key = storage.Key(s)
		case "value":
			raw, err := d.Raw()
			if err != nil {
				return errors.Wrap(err, "value")
			}
			env.Value = bytes.Clone(raw)
		default:
			return d.Skip()
		}
		return nil
	}); err != nil {
		return Envelope{}, errors.Wrap(err, "decode envelope")
	}
	if env.Key == "" {
		return Envelope{}, errors.New("envelope has no key")
	}
	if env.Value == nil {
		return Envelope{}, errors.Errorf("envelope %s has no value", env.Key)
	}
	return env, nil
}
