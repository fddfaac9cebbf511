package session

import (
	"sync"
	"testing"
)

func TestQueueFIFO(t *testing.T) {
	tx, rx := NewQueue()
	tx.Send(ReplaceCanvas{Text: "a"})
	tx.Send(CompileEffect{Source: "b"})
	tx.Send(Tick{})

	cmds := rx.Drain()
	if len(cmds) != 3 {
		t.Fatalf("expected 3 commands, got %d", len(cmds))
	}
	if _, ok := cmds[0].(ReplaceCanvas); !ok {
		t.Errorf("first command = %v", cmds[0])
	}
	if _, ok := cmds[1].(CompileEffect); !ok {
		t.Errorf("second command = %v", cmds[1])
	}
	if _, ok := cmds[2].(Tick); !ok {
		t.Errorf("third command = %v", cmds[2])
	}

	if again := rx.Drain(); again != nil {
		t.Errorf("second drain should be empty, got %v", again)
	}
}

func TestQueueDrainEmptyDoesNotBlock(t *testing.T) {
	_, rx := NewQueue()
	if cmds := rx.Drain(); len(cmds) != 0 {
		t.Errorf("expected no commands, got %v", cmds)
	}
}

func TestQueueCloseDropsSends(t *testing.T) {
	tx, rx := NewQueue()
	tx.Send(Tick{})
	rx.Close()
	tx.Send(Tick{})

	if !rx.Closed() {
		t.Error("queue should report closed")
	}
	if n := rx.Len(); n != 0 {
		t.Errorf("closed queue holds %d commands", n)
	}
	if cmds := rx.Drain(); cmds != nil {
		t.Errorf("closed queue drained %v", cmds)
	}
}

func TestZeroSenderIsInert(t *testing.T) {
	var tx Sender
	tx.Send(Tick{})
}

func TestQueueConcurrentProducers(t *testing.T) {
	tx, rx := NewQueue()
	const producers, perProducer = 8, 200

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				tx.Send(Resize{Width: p, Height: i})
			}
		}(p)
	}

	// Drain concurrently with the producers, as the frame loop does.
	var got []Command
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for finished := false; !finished; {
		select {
		case <-done:
			finished = true
		default:
		}
		got = append(got, rx.Drain()...)
	}

	if len(got) != producers*perProducer {
		t.Fatalf("expected %d commands, got %d", producers*perProducer, len(got))
	}
	next := make([]int, producers)
	for _, cmd := range got {
		r := cmd.(Resize)
		if r.Height != next[r.Width] {
			t.Fatalf("producer %d: got command %d, expected %d", r.Width, r.Height, next[r.Width])
		}
		next[r.Width]++
	}
}

func TestCommandStrings(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{ReplaceCanvas{Text: "abc"}, "ReplaceCanvas(3 bytes)"},
		{CompileEffect{Source: "x"}, "CompileEffect(1 bytes)"},
		{RestartEffect{}, "RestartEffect"},
		{Resize{Width: 3, Height: 4}, "Resize(3x4)"},
		{Tick{}, "Tick"},
	}
	for _, tt := range tests {
		if got := tt.cmd.String(); got != tt.want {
			t.Errorf("String() = %q, expected %q", got, tt.want)
		}
	}
}
