// Package wire carries row jobs to remote workers and their rows back over
// websocket connections.
//
// The server sends a fractal.RowJob as a JSON text message; the worker
// answers with one JSON message holding the row's RGBA bytes, zstd
// compressed. A connection serves one job at a time.
package wire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	fractal "github.com/marben/dist_fractal"
)

// MaxMessageSize bounds a single message in either direction.
const MaxMessageSize = 64 << 20

var (
	// ErrBadResult reports a reply that does not match the job it answers.
	ErrBadResult = errors.New("malformed row result")

	// ErrWorker wraps an error the worker reported for a job.
	ErrWorker = errors.New("worker failed")
)

// result is the worker's reply.
type result struct {
	Row        int    `json:"row"`
	Generation uint64 `json:"generation"`
	Encoding   string `json:"encoding,omitempty"`
	Pixels     []byte `json:"pixels,omitempty"`
	Error      string `json:"error,omitempty"`
}

// RemoteRenderer renders rows on the worker at the other end of a
// websocket connection.
type RemoteRenderer struct {
	conn *websocket.Conn
	addr string

	mu sync.Mutex // one job in flight per connection
}

var _ fractal.RowRenderer = (*RemoteRenderer)(nil)

func NewRemoteRenderer(conn *websocket.Conn, addr string) *RemoteRenderer {
	return &RemoteRenderer{conn: conn, addr: addr}
}

// Addr is the remote address of the worker.
func (r *RemoteRenderer) Addr() string {
	return r.addr
}

func (r *RemoteRenderer) RenderRow(ctx context.Context, job fractal.RowJob) (fractal.RowResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := wsjson.Write(ctx, r.conn, job); err != nil {
		return fractal.RowResult{}, fmt.Errorf("send row %d to %s: %w", job.Row, r.addr, err)
	}

	var msg result
	if err := wsjson.Read(ctx, r.conn, &msg); err != nil {
		return fractal.RowResult{}, fmt.Errorf("read row %d from %s: %w", job.Row, r.addr, err)
	}
	if msg.Error != "" {
		return fractal.RowResult{}, fmt.Errorf("%w: %s: row %d: %s", ErrWorker, r.addr, job.Row, msg.Error)
	}

	want := job.Width * 4
	pix, err := unpack(msg.Encoding, msg.Pixels, want)
	if err != nil {
		return fractal.RowResult{}, fmt.Errorf("row %d from %s: %w", job.Row, r.addr, err)
	}
	if msg.Row != job.Row || msg.Generation != job.Generation || len(pix) != want {
		return fractal.RowResult{}, fmt.Errorf("%w: asked %s for row %d of generation %d, got row %d of generation %d with %d bytes",
			ErrBadResult, r.addr, job.Row, job.Generation, msg.Row, msg.Generation, len(pix))
	}

	return fractal.RowResult{Row: msg.Row, Generation: msg.Generation, Pixels: pix}, nil
}

// Serve answers jobs arriving on conn with rows computed by r until the
// peer closes the connection or ctx is done. A normal closure by the peer
// is not an error.
func Serve(ctx context.Context, conn *websocket.Conn, r fractal.RowRenderer) error {
	for {
		var job fractal.RowJob
		if err := wsjson.Read(ctx, conn, &job); err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read job: %w", err)
		}

		msg := result{Row: job.Row, Generation: job.Generation}
		res, err := r.RenderRow(ctx, job)
		if err == nil {
			msg.Row, msg.Generation = res.Row, res.Generation
			msg.Encoding, msg.Pixels, err = pack(res.Pixels)
		}
		if err != nil {
			msg.Error = err.Error()
		}

		if err := wsjson.Write(ctx, conn, msg); err != nil {
			return fmt.Errorf("write row %d: %w", job.Row, err)
		}
	}
}

// Handler accepts worker connections. onConnect runs for the lifetime of
// each connection; the connection is closed when it returns.
func Handler(logger *slog.Logger, onConnect func(ctx context.Context, r *RemoteRenderer) error) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(w http.ResponseWriter, req *http.Request) {
		conn, err := websocket.Accept(w, req, nil)
		if err != nil {
			logger.Warn("websocket accept failed", "remote", req.RemoteAddr, "err", err)
			return
		}
		conn.SetReadLimit(MaxMessageSize)

		logger.Info("worker connected", "remote", req.RemoteAddr)
		if err := onConnect(req.Context(), NewRemoteRenderer(conn, req.RemoteAddr)); err != nil {
			logger.Warn("worker dropped", "remote", req.RemoteAddr, "err", err)
			conn.Close(websocket.StatusInternalError, "row failed")
			return
		}
		logger.Info("worker disconnected", "remote", req.RemoteAddr)
		conn.Close(websocket.StatusNormalClosure, "")
	}
}

// Dial connects a worker to the server's websocket endpoint.
func Dial(ctx context.Context, url string) (*websocket.Conn, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	conn.SetReadLimit(MaxMessageSize)
	return conn, nil
}
