package notifier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Send(ctx context.Context, n Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func TestBroadcaster_Send(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	n := Notification{ContainerID: 42, Mention: &Mention{ID: 7, Name: "alice"}, Text: "hello"}

	t.Run("AllNotifiersReceive", func(t *testing.T) {
		t.Parallel()

		first, second := &mockNotifier{}, &mockNotifier{}
		first.On("Send", ctx, n).Return(nil).Once()
		second.On("Send", ctx, n).Return(nil).Once()

		b := NewBroadcaster(first)
		b.Register(second)

		assert.NoError(t, b.Send(ctx, n))
		first.AssertExpectations(t)
		second.AssertExpectations(t)
	})

	t.Run("FailureDoesNotStopOthers", func(t *testing.T) {
		t.Parallel()

		errSend := errors.New("send failed")
		failing, working := &mockNotifier{}, &mockNotifier{}
		failing.On("Send", ctx, n).Return(errSend).Once()
		working.On("Send", ctx, n).Return(nil).Once()

		err := NewBroadcaster(failing, working).Send(ctx, n)
		assert.ErrorIs(t, err, errSend)
		working.AssertExpectations(t)
	})

	t.Run("NoNotifiers", func(t *testing.T) {
		t.Parallel()

		assert.NoError(t, NewBroadcaster().Send(ctx, n))
	})
}
