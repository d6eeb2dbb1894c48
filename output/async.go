package output

import (
	"image"
	"sync"

	fractal "github.com/marben/dist_fractal"
)

type pending struct {
	generation uint64
	img        *image.RGBA
}

// Async passes frames to a slow presenter on its own goroutine.
// PresentFrame never blocks; a frame next has not picked up yet is replaced
// by the newer one.
type Async struct {
	next fractal.Presenter
	ch   chan pending
	quit chan struct{}
	done chan struct{}
	once sync.Once
}

var _ fractal.Presenter = (*Async)(nil)

func NewAsync(next fractal.Presenter) *Async {
	a := &Async{
		next: next,
		ch:   make(chan pending, 1),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) PresentFrame(generation uint64, img *image.RGBA) {
	p := pending{generation: generation, img: img}
	for {
		select {
		case a.ch <- p:
			return
		default:
		}
		select {
		case <-a.ch:
		default:
		}
	}
}

// Close delivers a frame still waiting and stops the goroutine. Frames
// presented after Close are dropped.
func (a *Async) Close() {
	a.once.Do(func() { close(a.quit) })
	<-a.done
}

func (a *Async) run() {
	defer close(a.done)
	for {
		select {
		case p := <-a.ch:
			a.next.PresentFrame(p.generation, p.img)
		case <-a.quit:
			select {
			case p := <-a.ch:
				a.next.PresentFrame(p.generation, p.img)
			default:
			}
			return
		}
	}
}
