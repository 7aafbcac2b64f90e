package vision

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Backend identifies which landmark sidecar variant the provider speaks
// to. Tasks is the current model service, Mesh the legacy one; both take
// binary frame bytes and answer with normalized landmark sets.
type Backend string

const (
	BackendTasks Backend = "FaceLandmarker (Tasks)"
	BackendMesh  Backend = "FaceMesh (Solutions)"
)

// Status is the health snapshot served by the detection health endpoint.
type Status struct {
	Initialized bool   `json:"initialized"`
	Backend     string `json:"backend,omitempty"`
	Error       string `json:"error,omitempty"`
}

type ILandmarkProvider interface {
	// Detect sends one encoded frame to the sidecar and returns zero or
	// more landmark sets, one per detected face (max 4).
	Detect(frame []byte) ([][]Landmark, error)
	Status() Status
	Close()
}

// ErrNotInitialized is returned by Detect when startup probing found no
// reachable backend. This is a configuration failure: it is not retried
// per call.
var ErrNotInitialized = fmt.Errorf("landmark provider not initialized")

type landmarkResponse struct {
	Faces [][]Landmark `json:"faces"`
	Error string       `json:"error,omitempty"`
}

type landmarkProvider struct {
	log *logrus.Logger

	mu           sync.Mutex
	conn         *websocket.Conn
	backend      Backend
	url          string
	initialized  bool
	initErr      string
	readTimeout  time.Duration
	writeTimeout time.Duration
	pingInterval time.Duration
}

var (
	provider     *landmarkProvider
	providerOnce sync.Once
)

// NewLandmarkProvider probes the configured sidecar backends once per
// process: the Tasks service first, then the legacy Mesh service. The
// selected connection is shared and guarded by a mutex; a failed probe
// leaves the provider in a fail-fast state visible through Status.
func NewLandmarkProvider(log *logrus.Logger) ILandmarkProvider {
	providerOnce.Do(func() {
		provider = &landmarkProvider{
			log:          log,
			readTimeout:  10 * time.Second,
			writeTimeout: 5 * time.Second,
			pingInterval: 30 * time.Second,
		}
		provider.initialize()
	})
	return provider
}

func (p *landmarkProvider) initialize() {
	candidates := []struct {
		backend Backend
		url     string
	}{
		{BackendTasks, envOr("LANDMARK_TASKS_URL", "ws://localhost:8000/api/v1/landmarks/tasks/ws")},
		{BackendMesh, envOr("LANDMARK_MESH_URL", "ws://localhost:8000/api/v1/landmarks/mesh/ws")},
	}

	for _, c := range candidates {
		conn, err := dialSidecar(c.url, p.writeTimeout)
		if err != nil {
			p.log.WithFields(logrus.Fields{
				"backend": c.backend,
				"url":     c.url,
				"error":   err.Error(),
			}).Warn("Landmark backend probe failed")
			p.initErr = err.Error()
			continue
		}

		p.mu.Lock()
		p.conn = conn
		p.backend = c.backend
		p.url = c.url
		p.initialized = true
		p.initErr = ""
		p.mu.Unlock()

		p.log.WithFields(logrus.Fields{
			"backend": c.backend,
			"url":     c.url,
		}).Info("Landmark backend loaded")

		go p.keepAlive()
		return
	}

	p.log.WithField("error", p.initErr).Error("No landmark backend available")
}

func dialSidecar(url string, writeTimeout time.Duration) (*websocket.Conn, error) {
	dialer := websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}

	conn.SetPingHandler(func(appData string) error {
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeTimeout))
	})

	return conn, nil
}

func (p *landmarkProvider) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := Status{Initialized: p.initialized}
	if p.initialized {
		st.Backend = string(p.backend)
	} else {
		st.Error = p.initErr
	}
	return st
}

func (p *landmarkProvider) Detect(frame []byte) ([][]Landmark, error) {
	p.mu.Lock()
	if !p.initialized {
		p.mu.Unlock()
		return nil, ErrNotInitialized
	}

	conn := p.conn
	if conn == nil {
		// The selected backend dropped; one reconnect attempt, then
		// surface the failure to the caller.
		var err error
		conn, err = dialSidecar(p.url, p.writeTimeout)
		if err != nil {
			p.mu.Unlock()
			return nil, err
		}
		p.conn = conn
	}

	conn.SetWriteDeadline(time.Now().Add(p.writeTimeout))
	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		p.conn = nil
		conn.Close()
		p.mu.Unlock()
		return nil, fmt.Errorf("error sending frame to landmark service: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(p.readTimeout))
	p.mu.Unlock()

	_, message, err := conn.ReadMessage()
	if err != nil {
		p.mu.Lock()
		p.conn = nil
		conn.Close()
		p.mu.Unlock()
		return nil, fmt.Errorf("error reading landmark response: %w", err)
	}

	p.mu.Lock()
	conn.SetReadDeadline(time.Time{})
	conn.SetWriteDeadline(time.Time{})
	p.mu.Unlock()

	var resp landmarkResponse
	if err := json.Unmarshal(message, &resp); err != nil {
		return nil, fmt.Errorf("error unmarshaling landmark response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("landmark service error: %s", resp.Error)
	}

	return resp.Faces, nil
}

func (p *landmarkProvider) keepAlive() {
	ticker := time.NewTicker(p.pingInterval)
	defer ticker.Stop()

	for range ticker.C {
		p.mu.Lock()
		conn := p.conn
		if conn == nil {
			p.mu.Unlock()
			return
		}

		err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(p.writeTimeout))
		if err != nil {
			p.log.WithFields(logrus.Fields{
				"backend": p.backend,
				"error":   err.Error(),
			}).Warn("Landmark service ping failed, dropping connection")
			p.conn = nil
			conn.Close()
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()
	}
}

func (p *landmarkProvider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
