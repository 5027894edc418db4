package publisher

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gaze-network/token-sale/common"
	"github.com/gaze-network/token-sale/common/errs"
	"github.com/gaze-network/token-sale/modules/tokensale/internal/entity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeMessage(t *testing.T) {
	t.Parallel()

	buyer := common.BytesToAddress([]byte{0x02})
	sale := common.BytesToAddress([]byte{0x5a})
	tx := &entity.Transaction{
		Seq:       7,
		ID:        uuid.MustParse("0b7c1c2e-0d0b-4f2a-a3a4-49b2a5c1c001"),
		Method:    entity.MethodPurchase,
		Sender:    buyer,
		Timestamp: time.Unix(1_740_010_000, 0).UTC(),
	}
	event := &entity.EventRecord{
		TxSeq:     7,
		LogIndex:  3,
		Name:      "Purchased",
		Source:    sale,
		Accounts:  []common.Address{buyer},
		Data:      json.RawMessage(`{"batchId":1}`),
		Timestamp: tx.Timestamp,
	}

	payload, err := encodeMessage(tx, event)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "0b7c1c2e-0d0b-4f2a-a3a4-49b2a5c1c001", decoded["transactionId"])
	assert.Equal(t, "purchase", decoded["method"])
	assert.Equal(t, "Purchased", decoded["name"])
	assert.Equal(t, sale.String(), decoded["source"])
	assert.Equal(t, []any{buyer.String()}, decoded["accounts"])
	assert.Equal(t, map[string]any{"batchId": float64(1)}, decoded["data"])
	assert.Equal(t, float64(3), decoded["logIndex"])
}

func TestSubject(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "tokensale.Transfer", Subject(DefaultSubjectPrefix, "Transfer"))
}

func TestNewNATSRequiresURL(t *testing.T) {
	t.Parallel()
	_, err := NewNATS(Config{})
	assert.ErrorIs(t, err, errs.InvalidArgument)
}

func TestNop(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Nop.Publish(context.Background(), &entity.Transaction{}, nil))
	assert.NoError(t, Nop.Close())
}

func TestWithFlushDeadline(t *testing.T) {
	t.Parallel()

	ctx, cancel := withFlushDeadline(context.Background(), time.Minute)
	defer cancel()
	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)

	parent, parentCancel := context.WithTimeout(context.Background(), time.Second)
	defer parentCancel()
	parentDeadline, _ := parent.Deadline()
	ctx, cancel = withFlushDeadline(parent, time.Minute)
	defer cancel()
	deadline, _ = ctx.Deadline()
	assert.Equal(t, parentDeadline, deadline)
}

// natsStub speaks just enough of the NATS protocol to accept a client, answer pings and record
// published subjects.
type natsStub struct {
	listener net.Listener

	mu       sync.Mutex
	subjects []string
}

func startNATSStub(t *testing.T) *natsStub {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	stub := &natsStub{listener: listener}
	t.Cleanup(func() { _ = listener.Close() })

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go stub.serve(conn)
		}
	}()
	return stub
}

func (s *natsStub) URL() string {
	return "nats://" + s.listener.Addr().String()
}

func (s *natsStub) Subjects() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.subjects...)
}

func (s *natsStub) serve(conn net.Conn) {
	defer conn.Close()
	if _, err := conn.Write([]byte("INFO {\"server_id\":\"stub\",\"version\":\"2.10.0\",\"proto\":1,\"max_payload\":1048576}\r\n")); err != nil {
		return
	}
	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		switch fields := strings.Fields(line); {
		case len(fields) == 0:
		case fields[0] == "PING":
			if _, err := conn.Write([]byte("PONG\r\n")); err != nil {
				return
			}
		case fields[0] == "PUB" && len(fields) >= 3:
			s.mu.Lock()
			s.subjects = append(s.subjects, fields[1])
			s.mu.Unlock()
			if _, err := reader.ReadString('\n'); err != nil {
				return
			}
		}
	}
}

func TestNATSPublishWithoutDeadline(t *testing.T) {
	t.Parallel()
	stub := startNATSStub(t)

	p, err := NewNATS(Config{URL: stub.URL(), SubjectPrefix: "sale."})
	require.NoError(t, err)
	defer p.conn.Close()

	tx := &entity.Transaction{Seq: 1, Method: entity.MethodPurchase, Timestamp: time.Unix(1_740_010_000, 0).UTC()}
	events := []*entity.EventRecord{
		{TxSeq: 1, LogIndex: 0, Name: "Transfer", Data: json.RawMessage(`{}`)},
		{TxSeq: 1, LogIndex: 1, Name: "Purchased", Data: json.RawMessage(`{}`)},
	}

	// request contexts carry no deadline
	require.NoError(t, p.Publish(context.Background(), tx, events))
	assert.Equal(t, []string{"sale.Transfer", "sale.Purchased"}, stub.Subjects())
}
