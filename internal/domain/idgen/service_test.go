package idgen

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"snowid/internal/core/apperror"
	"snowid/internal/core/snowflake"
	"snowid/pkg/logger"
)

func TestService_Next(t *testing.T) {
	clock := snowflake.ClockFunc(func() int64 { return 1577836801000 })
	alloc, err := snowflake.New(snowflake.Config{NodeID: 1, Clock: clock})
	require.NoError(t, err)
	svc := NewService(alloc)

	id, err := svc.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "262148096", id.String())

	ts, err := svc.Timestamp(context.Background(), id.String())
	require.NoError(t, err)
	assert.Equal(t, int64(1577836801000), ts)
}

func TestService_NextClockMovedBackward(t *testing.T) {
	svc := NewService(&snowflake.MockGenerator{
		AllocateFunc: func() (snowflake.ID, error) {
			return 0, &snowflake.ClockError{Now: 90, Last: 100}
		},
	})

	_, err := svc.Next(context.Background())
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeClockMovedBackward, appErr.Code)
	assert.Equal(t, http.StatusServiceUnavailable, appErr.HTTPStatus)
	assert.Equal(t, int64(10), appErr.Details["behind_ms"])
	assert.Equal(t, snowflake.Epoch+100, appErr.Details["last_timestamp"])
	assert.True(t, errors.Is(err, snowflake.ErrClockMovedBackward))
}

func TestService_NextOtherErrors(t *testing.T) {
	svc := NewService(&snowflake.MockGenerator{
		AllocateFunc: func() (snowflake.ID, error) { return 0, snowflake.ErrTimestampOutOfRange },
	})
	_, err := svc.Next(context.Background())
	assert.True(t, apperror.HasCode(err, apperror.CodeTimestampOutOfRange))

	svc = NewService(&snowflake.MockGenerator{
		AllocateFunc: func() (snowflake.ID, error) { return 0, errors.New("boom") },
	})
	_, err = svc.Next(context.Background())
	assert.True(t, apperror.HasCode(err, apperror.CodeInternal))

	var nilSvc *Service
	_, err = nilSvc.Next(context.Background())
	assert.True(t, apperror.HasCode(err, apperror.CodeInternal))
}

func TestService_TimestampInvalidInput(t *testing.T) {
	svc := NewService(&snowflake.MockGenerator{})

	for _, raw := range []string{"", "abc", "-5", "99999999999999999999"} {
		_, err := svc.Timestamp(context.Background(), raw)
		assert.True(t, apperror.HasCode(err, apperror.CodeInvalidInput), "input %q", raw)
		assert.Equal(t, http.StatusBadRequest, apperror.GetHTTPStatus(err))
	}
}

func TestService_Inspect(t *testing.T) {
	svc := NewService(&snowflake.MockGenerator{})

	parts, err := svc.Inspect(context.Background(), "262148096")
	require.NoError(t, err)
	assert.Equal(t, snowflake.Parts{Timestamp: 1577836801000, NodeID: 1, Sequence: 0}, parts)

	_, err = svc.Inspect(context.Background(), "x")
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidInput))
}

func TestService_NextN(t *testing.T) {
	svc := NewService(&snowflake.MockGenerator{})

	ids, err := svc.NextN(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, ids, 5)
	for i := 1; i < len(ids); i++ {
		assert.Greater(t, uint64(ids[i]), uint64(ids[i-1]))
	}

	for _, n := range []int{0, -1, MaxBatch + 1} {
		_, err := svc.NextN(context.Background(), n)
		assert.True(t, apperror.HasCode(err, apperror.CodeInvalidInput), "n=%d", n)
	}
}

func TestService_NextNFailsAsAWhole(t *testing.T) {
	calls := 0
	svc := NewService(&snowflake.MockGenerator{
		AllocateFunc: func() (snowflake.ID, error) {
			calls++
			if calls == 3 {
				return 0, &snowflake.ClockError{Now: 1, Last: 2}
			}
			return snowflake.Compose(2, 0, uint64(calls)), nil
		},
	})

	ids, err := svc.NextN(context.Background(), 5)
	assert.Nil(t, ids)
	assert.True(t, apperror.HasCode(err, apperror.CodeClockMovedBackward))
}

func TestService_LogsClockRegressionAsIdgen(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	ctx := logger.WithLogger(context.Background(), &logger.Logger{SugaredLogger: zap.New(core).Sugar()})

	svc := NewService(&snowflake.MockGenerator{
		AllocateFunc: func() (snowflake.ID, error) {
			return 0, &snowflake.ClockError{Now: 5, Last: 8}
		},
	})
	_, err := svc.Next(ctx)
	require.Error(t, err)

	warns := logs.FilterLevelExact(zap.WarnLevel).All()
	require.Len(t, warns, 1)
	fields := warns[0].ContextMap()
	assert.Equal(t, "idgen", fields["component"])
	assert.Equal(t, int64(3), fields["behind_ms"])
}
