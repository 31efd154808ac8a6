package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/qs3c/matcharestock/internal/pkg/email"
	"github.com/qs3c/matcharestock/internal/pkg/payment"
)

// FakeSender records every message and can fail selected batch calls.
type FakeSender struct {
	mu       sync.Mutex
	Sent     []*email.Message
	Batches  [][]*email.Message
	FailCall map[int]error // 按批次调用序号（从 0 开始）返回错误
	SendErr  error
	calls    int
}

func NewFakeSender() *FakeSender {
	return &FakeSender{FailCall: map[int]error{}}
}

func (f *FakeSender) Send(ctx context.Context, msg *email.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SendErr != nil {
		return f.SendErr
	}
	f.Sent = append(f.Sent, msg)
	return nil
}

func (f *FakeSender) SendBatch(ctx context.Context, msgs []*email.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := f.calls
	f.calls++
	f.Batches = append(f.Batches, msgs)
	if err, ok := f.FailCall[call]; ok {
		return err
	}
	f.Sent = append(f.Sent, msgs...)
	return nil
}

// BatchCalls 返回 SendBatch 的调用次数
func (f *FakeSender) BatchCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// SentTo 返回发给某个地址的全部邮件
func (f *FakeSender) SentTo(addr string) []*email.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*email.Message
	for _, m := range f.Sent {
		if m.To == addr {
			out = append(out, m)
		}
	}
	return out
}

func (f *FakeSender) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Sent)
}

// FakeGateway is an in-memory payment.Gateway.
type FakeGateway struct {
	mu            sync.Mutex
	Customers     map[string]int64
	Subscriptions map[string]*payment.Subscription
	Canceled      []string
	Checkouts     []*payment.CheckoutRequest
	CancelErr     error
	nextID        int
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		Customers:     map[string]int64{},
		Subscriptions: map[string]*payment.Subscription{},
	}
}

func (g *FakeGateway) CreateCustomer(ctx context.Context, email string, userID int64) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	id := fmt.Sprintf("cus_fake_%d", g.nextID)
	g.Customers[id] = userID
	return id, nil
}

func (g *FakeGateway) CreateCheckoutSession(ctx context.Context, req *payment.CheckoutRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Checkouts = append(g.Checkouts, req)
	return "https://checkout.stripe.test/" + req.CustomerID, nil
}

func (g *FakeGateway) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	return "https://billing.stripe.test/" + customerID, nil
}

func (g *FakeGateway) GetSubscription(ctx context.Context, id string) (*payment.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	sub, ok := g.Subscriptions[id]
	if !ok {
		return nil, errors.New("no such subscription: " + id)
	}
	cp := *sub
	return &cp, nil
}

func (g *FakeGateway) CancelSubscription(ctx context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.CancelErr != nil {
		return g.CancelErr
	}
	g.Canceled = append(g.Canceled, id)
	return nil
}
