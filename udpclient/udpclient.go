package udpclient

import (
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"time"
)

var ErrTimeout = errors.New("udpclient: timed out")
var ErrDisconnected = errors.New("udpclient: disconnected")

// UDPClient is a connected UDP socket with its datagrams delivered over channels. A read loop and a
// write loop run for as long as the client is connected.
type UDPClient struct {
	name string

	lock        sync.Mutex
	c           *net.UDPConn
	isConnected bool

	read  chan []byte
	write chan []byte
	done  chan struct{}

	addr *net.UDPAddr
}

func NewUDPClient(name string) *UDPClient {
	return MakeUDPClient(name, &UDPClient{})
}

func MakeUDPClient(name string, c *UDPClient) *UDPClient {
	c.name = name
	return c
}

func (c *UDPClient) Name() string        { return c.name }
func (c *UDPClient) Addr() *net.UDPAddr { return c.addr }

func (c *UDPClient) IsConnected() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.isConnected
}

func (c *UDPClient) Connect(addr *net.UDPAddr) (err error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.isConnected {
		return fmt.Errorf("%s: already connected", c.name)
	}

	log.Printf("%s: connect to server '%s'\n", c.name, addr)
	c.addr = addr
	c.c, err = net.DialUDP("udp", nil, addr)
	if err != nil {
		return
	}

	c.isConnected = true
	c.read = make(chan []byte, 64)
	c.write = make(chan []byte, 64)
	c.done = make(chan struct{})
	log.Printf("%s: connected to server '%s'\n", c.name, addr)

	go c.readLoop(c.c, c.read, c.done)
	go c.writeLoop(c.c, c.write, c.done)

	return
}

func (c *UDPClient) Disconnect() {
	c.disconnect(nil)
}

// disconnect tears down the connection whose loops were started with done; nil means the current one.
func (c *UDPClient) disconnect(done <-chan struct{}) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if !c.isConnected {
		return
	}
	if done != nil && done != (<-chan struct{})(c.done) {
		return
	}
	log.Printf("%s: disconnect from server '%s'\n", c.name, c.addr)

	c.isConnected = false
	close(c.done)

	// close the underlying connection:
	if err := c.c.Close(); err != nil {
		log.Printf("%s: close: %v\n", c.name, err)
	}
	c.c = nil

	log.Printf("%s: disconnected from server '%s'\n", c.name, c.addr)
}

// Drain discards any datagrams already received; used before a request so a late reply to an earlier
// request is not mistaken for the new one.
func (c *UDPClient) Drain() {
	c.lock.Lock()
	read := c.read
	c.lock.Unlock()
	for {
		select {
		case <-read:
		default:
			return
		}
	}
}

func (c *UDPClient) WriteTimeout(b []byte, d time.Duration) error {
	c.lock.Lock()
	write, done, connected := c.write, c.done, c.isConnected
	c.lock.Unlock()
	if !connected {
		return ErrDisconnected
	}

	select {
	case write <- b:
		return nil
	case <-done:
		return ErrDisconnected
	case <-time.After(d):
		return ErrTimeout
	}
}

func (c *UDPClient) ReadTimeout(d time.Duration) ([]byte, error) {
	c.lock.Lock()
	read, done, connected := c.read, c.done, c.isConnected
	c.lock.Unlock()
	if !connected {
		return nil, ErrDisconnected
	}

	select {
	case b := <-read:
		return b, nil
	case <-done:
		return nil, ErrDisconnected
	case <-time.After(d):
		return nil, ErrTimeout
	}
}

// must run in a goroutine
func (c *UDPClient) readLoop(conn *net.UDPConn, read chan<- []byte, done <-chan struct{}) {
	defer func() {
		c.disconnect(done)
		log.Printf("%s: readLoop exited\n", c.name)
	}()

	// we only need a single receive buffer:
	b := make([]byte, 65536)

	for {
		// wait for a packet from UDP socket:
		var n, _, err = conn.ReadFromUDP(b)
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				log.Printf("%s: %v\n", c.name, err)
			}
			return
		}

		// copy the envelope:
		envelope := make([]byte, n)
		copy(envelope, b[:n])

		select {
		case read <- envelope:
		case <-done:
			return
		}
	}
}

// must run in a goroutine
func (c *UDPClient) writeLoop(conn *net.UDPConn, write <-chan []byte, done <-chan struct{}) {
	defer func() {
		c.disconnect(done)
		log.Printf("%s: writeLoop exited\n", c.name)
	}()

	for {
		select {
		case w := <-write:
			if _, err := conn.Write(w); err != nil {
				if !errors.Is(err, net.ErrClosed) {
					log.Printf("%s: %v\n", c.name, err)
				}
				return
			}
		case <-done:
			return
		}
	}
}
