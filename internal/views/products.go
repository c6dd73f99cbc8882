package views

import (
	"context"
	"sync"

	"github.com/notDuyLam/myshop-wp/internal/application"
	"github.com/notDuyLam/myshop-wp/internal/domain"
	"github.com/rs/zerolog"
)

type ProductQuerier interface {
	QueryProducts(ctx context.Context, query domain.ProductQuery) (domain.ProductPage, error)
}

// ProductsState is everything a product list screen renders.
type ProductsState struct {
	Items        []domain.Product
	TotalItems   int64
	TotalPages   int
	Query        domain.ProductQuery
	Loading      bool
	ErrorMessage string
}

// ProductsView owns the product list state. A new load supersedes the one in
// flight: its context is cancelled and its result, if it still arrives, is
// dropped.
type ProductsView struct {
	source ProductQuerier
	log    zerolog.Logger

	mu      sync.Mutex
	state   ProductsState
	gen     uint64
	cancel  context.CancelFunc
	subs    map[int]chan ProductsState
	nextSub int
}

func NewProductsView(source ProductQuerier, log zerolog.Logger) *ProductsView {
	return &ProductsView{
		source: source,
		log:    log.With().Str("component", "products-view").Logger(),
		state: ProductsState{Query: domain.ProductQuery{
			Sort:     domain.SortByName,
			Page:     1,
			PageSize: application.DefaultPageSize,
		}},
		subs: make(map[int]chan ProductsState),
	}
}

func (v *ProductsView) State() ProductsState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

// Subscribe returns a channel that always holds the most recent state. Slow
// readers skip intermediate states.
func (v *ProductsView) Subscribe() (<-chan ProductsState, func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.nextSub
	v.nextSub++
	ch := make(chan ProductsState, 1)
	ch <- v.snapshotLocked()
	v.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			if c, ok := v.subs[id]; ok {
				delete(v.subs, id)
				close(c)
			}
		})
	}
}

// Load runs query and publishes the outcome. It returns nil when the load was
// superseded or cancelled.
func (v *ProductsView) Load(ctx context.Context, query domain.ProductQuery) error {
	if query.CategoryID != nil {
		id := *query.CategoryID
		query.CategoryID = &id
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	v.mu.Lock()
	if v.cancel != nil {
		v.cancel()
	}
	v.gen++
	gen := v.gen
	v.cancel = cancel
	v.state.Query = query
	v.state.Loading = true
	v.state.ErrorMessage = ""
	v.publishLocked()
	v.mu.Unlock()

	page, err := v.source.QueryProducts(ctx, query)

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.gen {
		v.log.Debug().Uint64("generation", gen).Msg("dropping superseded product page")
		return nil
	}
	v.cancel = nil
	v.state.Loading = false

	switch {
	case err != nil && domain.IsCancelled(err):
	case err != nil:
		v.state.ErrorMessage = domain.Message(err)
	default:
		v.state.Items = page.Items
		v.state.TotalItems = page.TotalItems
		v.state.TotalPages = page.TotalPages
	}
	v.publishLocked()

	if err != nil && !domain.IsCancelled(err) {
		return err
	}
	return nil
}

func (v *ProductsView) Reload(ctx context.Context) error {
	return v.Load(ctx, v.State().Query)
}

// SetKeyword, SetCategory and SetSort restart from the first page.
func (v *ProductsView) SetKeyword(ctx context.Context, keyword string) error {
	q := v.State().Query
	q.Keyword = keyword
	q.Page = 1
	return v.Load(ctx, q)
}

func (v *ProductsView) SetCategory(ctx context.Context, categoryID *uint) error {
	q := v.State().Query
	q.CategoryID = categoryID
	q.Page = 1
	return v.Load(ctx, q)
}

func (v *ProductsView) SetSort(ctx context.Context, sort domain.ProductSort) error {
	q := v.State().Query
	q.Sort = sort
	q.Page = 1
	return v.Load(ctx, q)
}

func (v *ProductsView) SetPage(ctx context.Context, page int) error {
	q := v.State().Query
	q.Page = page
	return v.Load(ctx, q)
}

// Close cancels the load in flight and ends every subscription.
func (v *ProductsView) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.gen++
	for id, ch := range v.subs {
		delete(v.subs, id)
		close(ch)
	}
}

func (v *ProductsView) snapshotLocked() ProductsState {
	s := v.state
	s.Items = append([]domain.Product(nil), v.state.Items...)
	if q := v.state.Query.CategoryID; q != nil {
		id := *q
		s.Query.CategoryID = &id
	}
	return s
}

func (v *ProductsView) publishLocked() {
	if len(v.subs) == 0 {
		return
	}
	s := v.snapshotLocked()
	for _, ch := range v.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s:
		default:
		}
	}
}
