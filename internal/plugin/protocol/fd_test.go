package protocol

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipeFDs(t *testing.T) (FD, FD) {
	t.Helper()
	r, w := newPipe(t)
	return FD{Num: int(r.Fd())}, FD{Num: int(w.Fd())}
}

func TestFDRoundTrip(t *testing.T) {
	r, w := pipeFDs(t)

	payload := make([]byte, 1<<20)
	for i := range payload {
		payload[i] = byte(i)
	}

	errc := make(chan error, 1)
	go func() {
		if err := WriteInt32(w, 42); err != nil {
			errc <- err
			return
		}
		errc <- WriteBlock(w, payload)
	}()

	n, err := ReadInt32(r)
	require.NoError(t, err)
	assert.Equal(t, int32(42), n)

	got, err := ReadBlock(r, DefaultLimits())
	require.NoError(t, err)
	require.NoError(t, <-errc)
	assert.Equal(t, payload, got)
}

func TestFDEOF(t *testing.T) {
	rf, wf := newPipe(t)
	require.NoError(t, wf.Close())

	r := FD{Num: int(rf.Fd())}
	_, err := ReadInt32(r)
	assert.ErrorIs(t, err, ErrConnectionClosed)

	closed, err := ReadBool(r, EOFAssumeTrue)
	require.NoError(t, err)
	assert.True(t, closed)
}

func TestFDReadTimeout(t *testing.T) {
	r, _ := pipeFDs(t)
	r.ReadTimeout = 20 * time.Millisecond

	start := time.Now()
	_, err := ReadInt32(r)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestFDWriteBrokenPipe(t *testing.T) {
	rf, wf := newPipe(t)
	require.NoError(t, rf.Close())

	err := WriteInt32(FD{Num: int(wf.Fd())}, 1)
	assert.ErrorIs(t, err, ErrConnectionClosed)
}

func TestFDCheck(t *testing.T) {
	r, w := pipeFDs(t)
	assert.NoError(t, r.Check())
	assert.NoError(t, w.Check())

	assert.Error(t, FD{Num: -1}.Check())
	assert.Error(t, FD{Num: 1 << 20}.Check())
}

func TestChannelsValidate(t *testing.T) {
	r, w := pipeFDs(t)

	ok := Channels{Control: r, Command: w, Data: r}
	assert.NoError(t, ok.Validate())

	bad := NewChannels(r.Num, 1<<20, 1<<20+1)
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command channel")
	assert.Contains(t, err.Error(), "data channel")
	assert.NotContains(t, err.Error(), "control channel")
}

func TestChannelsWithReadTimeout(t *testing.T) {
	c := NewChannels(3, 4, 5).WithReadTimeout(time.Second)
	assert.Equal(t, time.Second, c.Control.ReadTimeout)
	assert.Equal(t, time.Second, c.Data.ReadTimeout)
	assert.Zero(t, c.Command.ReadTimeout)
	assert.Equal(t, 4, c.Command.Num)
}

func TestFDZeroLength(t *testing.T) {
	n, err := FD{Num: -1}.Read(nil)
	assert.NoError(t, err)
	assert.Zero(t, n)
}
