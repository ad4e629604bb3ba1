package payment

import (
	"crypto/md5"
	"encoding/hex"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register("epay", NewEPay("k"))
	r.Register("alipay", NewEPay("k2"))

	g, err := r.Get("epay")
	require.NoError(t, err)
	assert.NotNil(t, g)

	_, err = r.Get("stripe")
	assert.True(t, errors.Is(err, ErrUnknownMethod))

	assert.Equal(t, []string{"alipay", "epay"}, r.Methods())
}

func TestNewGateway(t *testing.T) {
	g, err := NewGateway(DriverEPay, "secret")
	require.NoError(t, err)
	assert.IsType(t, &EPay{}, g)

	_, err = NewGateway("unknown", "")
	assert.Error(t, err)
}

func TestEPay_Sign(t *testing.T) {
	e := NewEPay("KEY")
	params := map[string]string{
		"pid":          "1001",
		"out_trade_no": "abc",
		"money":        "",
		"sign_type":    "MD5",
	}

	sum := md5.Sum([]byte("out_trade_no=abc&pid=1001KEY"))
	assert.Equal(t, hex.EncodeToString(sum[:]), e.Sign(params))
}

func TestEPay_Notify(t *testing.T) {
	e := NewEPay("KEY")
	params := map[string]string{
		"out_trade_no": "T001",
		"trade_no":     "CB001",
		"trade_status": "TRADE_SUCCESS",
	}
	params["sign"] = e.Sign(params)

	n, err := e.Notify(params)
	require.NoError(t, err)
	assert.Equal(t, "T001", n.TradeNo)
	assert.Equal(t, "CB001", n.CallbackNo)
	assert.True(t, n.Paid)

	t.Run("tampered params", func(t *testing.T) {
		bad := map[string]string{}
		for k, v := range params {
			bad[k] = v
		}
		bad["out_trade_no"] = "T002"
		_, err := e.Notify(bad)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("missing sign", func(t *testing.T) {
		_, err := e.Notify(map[string]string{"out_trade_no": "T001"})
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("unpaid status", func(t *testing.T) {
		p := map[string]string{"out_trade_no": "T003", "trade_status": "WAIT"}
		p["sign"] = e.Sign(p)
		n, err := e.Notify(p)
		require.NoError(t, err)
		assert.False(t, n.Paid)
	})
}
