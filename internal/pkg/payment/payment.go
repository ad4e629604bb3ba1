package payment

import (
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
)

var (
	ErrUnknownMethod    = errors.New("支付方式不可用")
	ErrInvalidSignature = errors.New("支付回调验签失败")
)

// Notification 支付回调解析结果。Paid 为 false 时表示渠道通知了非成功状态。
type Notification struct {
	TradeNo    string
	CallbackNo string
	Paid       bool
}

// Gateway 支付渠道，只负责回调验签与解析
type Gateway interface {
	Notify(params map[string]string) (*Notification, error)
}

// Registry 按支付方式名称注册的渠道
type Registry struct {
	mu       sync.RWMutex
	gateways map[string]Gateway
}

func NewRegistry() *Registry {
	return &Registry{gateways: make(map[string]Gateway)}
}

// Register 同名渠道会被覆盖
func (r *Registry) Register(method string, gateway Gateway) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gateways[method] = gateway
}

func (r *Registry) Get(method string) (Gateway, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	gateway, ok := r.gateways[method]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownMethod, "method %s", method)
	}
	return gateway, nil
}

// Methods 已注册的支付方式，按名称排序
func (r *Registry) Methods() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	methods := make([]string, 0, len(r.gateways))
	for m := range r.gateways {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	return methods
}

// NewGateway 按驱动名创建渠道
func NewGateway(driver, key string) (Gateway, error) {
	switch driver {
	case DriverEPay:
		return NewEPay(key), nil
	default:
		return nil, errors.Newf("unknown payment driver %q", driver)
	}
}
