// Package trace writes fabric geometry to compressed JSON-lines files, one
// record per traced frame, and reads them back for replay.
package trace

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/elastic-interval/pretenst-sub000/internal/fabric"
)

const suffix = ".jsonl.zst"

// Record is the geometry of one frame.
type Record struct {
	Run       string       `json:"run"`
	Frame     uint64       `json:"frame"`
	Age       uint32       `json:"age"`
	Direction string       `json:"direction"`
	Joints    [][3]float32 `json:"joints"`
	Intervals [][2]uint16  `json:"intervals"`
	Stresses  []float32    `json:"stresses"`
	Midpoint  [3]float32   `json:"midpoint"`
	Seed      [3]float32   `json:"seed"`
	Forward   [3]float32   `json:"forward"`
}

// Capture reads the current instance of k into a record.
func Capture(k *fabric.Kernel, run string, frame uint64) Record {
	r := Record{
		Run:       run,
		Frame:     frame,
		Age:       k.Age(),
		Direction: k.CurrentDirection().String(),
		Joints:    make([][3]float32, 0, k.JointCount()),
		Intervals: make([][2]uint16, 0, k.IntervalCount()),
		Stresses:  make([]float32, 0, k.IntervalCount()),
	}
	for j := uint16(0); j < k.JointCount(); j++ {
		at, _ := k.JointLocation(j)
		r.Joints = append(r.Joints, [3]float32{at.X, at.Y, at.Z})
	}
	for i := uint16(0); i < k.IntervalCount(); i++ {
		alpha, omega, _ := k.IntervalJoints(i)
		stress, _ := k.IntervalStress(i)
		r.Intervals = append(r.Intervals, [2]uint16{alpha, omega})
		r.Stresses = append(r.Stresses, stress)
	}
	mid := k.Midpoint()
	r.Midpoint = [3]float32{mid.X, mid.Y, mid.Z}
	at, ahead := k.Seed(), k.Forward()
	r.Seed = [3]float32{at.X, at.Y, at.Z}
	r.Forward = [3]float32{ahead.X, ahead.Y, ahead.Z}
	return r
}

// Writer appends JSON lines to zstd files under baseDir, starting a new
// file every hour.
type Writer struct {
	baseDir string
	prefix  string
	now     func() time.Time

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewWriter(baseDir, prefix string) *Writer {
	return &Writer{
		baseDir: baseDir,
		prefix:  prefix,
		now:     time.Now,
	}
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

// Write appends one value as a JSON line.
func (w *Writer) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := w.now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

// Flush pushes buffered lines through the encoder so a crash loses at most
// what came after.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return nil
	}
	if err := w.w.Flush(); err != nil {
		return err
	}
	return w.enc.Flush()
}

func (w *Writer) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.pathForHour(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 128*1024)
	w.curHour = hour
	return nil
}

// closeLocked releases the current file even when a step fails, reporting
// every failure.
func (w *Writer) closeLocked() error {
	var errs []error
	if w.w != nil {
		errs = append(errs, w.w.Flush())
	}
	if w.enc != nil {
		errs = append(errs, w.enc.Close())
	}
	if w.f != nil {
		errs = append(errs, w.f.Close())
	}
	w.f, w.enc, w.w = nil, nil, nil
	w.curHour = ""
	return errors.Join(errs...)
}

func (w *Writer) pathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s%s", w.prefix, hour, suffix))
}

// Files lists the trace files under dir with the given prefix, oldest first.
func Files(dir, prefix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, prefix+"-") && strings.HasSuffix(name, suffix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

// Read calls fn with every record in one trace file, in order. It stops at
// the first error fn returns.
func Read(path string, fn func(Record) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	for sc.Scan() {
		var r Record
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			return fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return sc.Err()
}
