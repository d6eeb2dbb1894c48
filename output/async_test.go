package output

import (
	"image"
	"slices"
	"sync"
	"testing"
	"time"
)

// gatedPresenter blocks in PresentFrame until released.
type gatedPresenter struct {
	entered chan uint64
	release chan struct{}

	mu   sync.Mutex
	gens []uint64
}

func (g *gatedPresenter) PresentFrame(gen uint64, _ *image.RGBA) {
	g.entered <- gen
	<-g.release
	g.mu.Lock()
	g.gens = append(g.gens, gen)
	g.mu.Unlock()
}

func TestAsync(t *testing.T) {
	g := &gatedPresenter{entered: make(chan uint64, 8), release: make(chan struct{})}
	a := NewAsync(g)
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))

	a.PresentFrame(1, img)
	select {
	case <-g.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first frame never delivered")
	}

	// the presenter is stuck on frame 1; these must not block
	returned := make(chan struct{})
	go func() {
		a.PresentFrame(2, img)
		a.PresentFrame(3, img)
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(5 * time.Second):
		t.Fatal("PresentFrame blocked behind a slow presenter")
	}

	close(g.release)
	a.Close()
	a.Close()

	g.mu.Lock()
	defer g.mu.Unlock()
	if !slices.Equal(g.gens, []uint64{1, 3}) {
		t.Errorf("presented %v, want [1 3]", g.gens)
	}
}
