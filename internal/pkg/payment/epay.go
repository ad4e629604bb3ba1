package payment

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"sort"
	"strings"
)

const DriverEPay = "epay"

// EPay 易支付回调：参数按键名排序拼接后追加商户密钥取 MD5
type EPay struct {
	key string
}

func NewEPay(key string) *EPay {
	return &EPay{key: key}
}

func (e *EPay) Notify(params map[string]string) (*Notification, error) {
	sign := params["sign"]
	if sign == "" || subtle.ConstantTimeCompare([]byte(e.Sign(params)), []byte(strings.ToLower(sign))) != 1 {
		return nil, ErrInvalidSignature
	}
	return &Notification{
		TradeNo:    params["out_trade_no"],
		CallbackNo: params["trade_no"],
		Paid:       params["trade_status"] == "TRADE_SUCCESS",
	}, nil
}

// Sign 计算签名，忽略 sign、sign_type 与空值参数
func (e *EPay) Sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if k == "sign" || k == "sign_type" || v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	b.WriteString(e.key)

	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
