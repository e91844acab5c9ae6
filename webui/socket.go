package webui

import (
	"encoding/json"
	"log"
	"net"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// Socket is one connected browser. Updates are coalesced per view so a slow browser only ever
// receives the latest model of each view.
type Socket struct {
	ws   *WebServer
	conn net.Conn

	lock    sync.Mutex
	pending map[string]interface{}
	order   []string
	wake    chan struct{}

	closeOnce sync.Once
	done      chan struct{}
}

func NewSocket(s *WebServer, conn net.Conn) *Socket {
	k := &Socket{
		ws:      s,
		conn:    conn,
		pending: make(map[string]interface{}),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	go k.readHandler()
	go k.writeHandler()

	return k
}

// NotifyView queues an update without blocking the caller.
func (k *Socket) NotifyView(view string, viewModel interface{}) {
	k.lock.Lock()
	if _, queued := k.pending[view]; !queued {
		k.order = append(k.order, view)
	}
	k.pending[view] = viewModel
	k.lock.Unlock()

	select {
	case k.wake <- struct{}{}:
	default:
	}
}

func (k *Socket) Close() {
	k.closeOnce.Do(func() {
		close(k.done)
		_ = k.conn.Close()
	})
}

func (k *Socket) take() []ViewModelUpdate {
	k.lock.Lock()
	defer k.lock.Unlock()

	updates := make([]ViewModelUpdate, 0, len(k.order))
	for _, view := range k.order {
		updates = append(updates, ViewModelUpdate{View: view, ViewModel: k.pending[view]})
		delete(k.pending, view)
	}
	k.order = k.order[:0]
	return updates
}

func (k *Socket) readHandler() {
	// the reader is in control of the lifetime of the socket:
	defer func() {
		k.Close()

		// remove self from sockets array:
		k.ws.removeSocket(k)
	}()

	for {
		msg, op, err := wsutil.ReadClientData(k.conn)
		if err != nil {
			select {
			case <-k.done:
			default:
				log.Printf("webui: socket read: %v\n", err)
			}
			return
		}

		switch op {
		case ws.OpText:
			// read a JSON command request:
			var creq CommandRequest
			if err = json.Unmarshal(msg, &creq); err != nil {
				log.Printf("webui: error reading json command request: %v\n", err)
				continue
			}

			if err = k.ws.execute(creq.View, creq.Command, creq.Args); err != nil {
				log.Printf("webui: view=%s,cmd=%s: %v\n", creq.View, creq.Command, err)
				continue
			}
		case ws.OpBinary:
			log.Printf("webui: ignoring %d byte binary frame\n", len(msg))
		}
	}
}

func (k *Socket) writeHandler() {
	for {
		select {
		case <-k.wake:
		case <-k.done:
			return
		}

		for _, u := range k.take() {
			b, err := json.Marshal(&u)
			if err != nil {
				log.Printf("webui: marshal view=%s: %v\n", u.View, err)
				continue
			}
			if err = wsutil.WriteServerMessage(k.conn, ws.OpText, b); err != nil {
				log.Printf("webui: socket write: %v\n", err)
				k.Close()
				return
			}
		}
	}
}
