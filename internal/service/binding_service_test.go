package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeperk/rebate-engine/internal/model"
)

type stubVerifier struct {
	eligible bool
	err      error
	calls    int
}

func (v *stubVerifier) VerifyUIDHasTrade(_ context.Context, _, _ string) (bool, error) {
	v.calls++
	return v.eligible, v.err
}

func newBindingService(env *testEnv, verifier UIDVerifier) *BindingService {
	return NewBindingService(env.users, env.exchanges, env.bindings, verifier, env.config)
}

func countBindings(t *testing.T, env *testEnv) int64 {
	var count int64
	require.NoError(t, env.db.Model(&model.UserBinding{}).Count(&count).Error)
	return count
}

func TestBindingService_RequestBinding_AutoApproved(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	verifier := &stubVerifier{eligible: true}

	svc := newBindingService(env, verifier)
	binding, err := svc.RequestBinding(ctx, 7, "weex", "u1")
	require.NoError(t, err)

	assert.Equal(t, model.BindingStatusVerified, binding.Status)
	assert.Equal(t, "u1", binding.UID)
	assert.Equal(t, 1, verifier.calls)

	// User row created on first contact.
	_, err = env.users.Get(ctx, 7)
	assert.NoError(t, err)
}

func TestBindingService_RequestBinding_ManualReview(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.setConfig(t, model.ConfigKeyAutoBindApprove, "false")

	svc := newBindingService(env, &stubVerifier{eligible: true})
	binding, err := svc.RequestBinding(ctx, 7, "weex", "u1")
	require.NoError(t, err)
	assert.Equal(t, model.BindingStatusPending, binding.Status)
}

func TestBindingService_RequestBinding_IneligibleLeavesNoRow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	svc := newBindingService(env, &stubVerifier{eligible: false})
	_, err := svc.RequestBinding(ctx, 7, "weex", "u1")
	assert.ErrorIs(t, err, ErrUIDNotEligible)
	assert.Zero(t, countBindings(t, env))
}

func TestBindingService_RequestBinding_BridgeErrorLeavesNoRow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	svc := newBindingService(env, &stubVerifier{err: assert.AnError})
	_, err := svc.RequestBinding(ctx, 7, "weex", "u1")
	assert.Error(t, err)
	assert.Zero(t, countBindings(t, env))
}

func TestBindingService_RequestBinding_UnsupportedExchange(t *testing.T) {
	env := newTestEnv(t)
	verifier := &stubVerifier{eligible: true}

	svc := newBindingService(env, verifier)
	_, err := svc.RequestBinding(context.Background(), 7, "Kraken", "u1")

	var unsupported *model.UnsupportedExchangeError
	assert.ErrorAs(t, err, &unsupported)
	assert.Zero(t, verifier.calls, "no bridge call for unknown exchange")
}

func TestBindingService_RequestBinding_RebindReplacesUID(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	svc := newBindingService(env, &stubVerifier{eligible: true})
	_, err := svc.RequestBinding(ctx, 7, "weex", "u1")
	require.NoError(t, err)

	binding, err := svc.RequestBinding(ctx, 7, "weex", "u2")
	require.NoError(t, err)
	assert.Equal(t, "u2", binding.UID)
	assert.Equal(t, int64(1), countBindings(t, env), "one row per (user, exchange)")
}

func TestBindingService_ApproveAndReject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.setConfig(t, model.ConfigKeyAutoBindApprove, "0")

	svc := newBindingService(env, &stubVerifier{eligible: true})
	binding, err := svc.RequestBinding(ctx, 7, "weex", "u1")
	require.NoError(t, err)

	require.NoError(t, svc.ApproveBinding(ctx, binding.ID, 99))
	approved, err := env.bindings.GetByID(ctx, binding.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BindingStatusVerified, approved.Status)
	assert.Equal(t, int64(99), approved.ReviewedBy)

	require.NoError(t, svc.RejectBinding(ctx, binding.ID, 99, "wrong account"))
	rejected, err := env.bindings.GetByID(ctx, binding.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BindingStatusRejected, rejected.Status)
	assert.Equal(t, "wrong account", rejected.RejectReason)
}
