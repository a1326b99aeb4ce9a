package catalog

import (
	"sync"

	"github.com/athebyme/gomarket-storefront/internal/domain/models"
	"github.com/athebyme/gomarket-storefront/internal/utils"
)

// WindowPolicy как новая страница попадает в отображаемый список
type WindowPolicy string

const (
	WindowReplace    WindowPolicy = "replace"    // страница заменяет список (десктоп)
	WindowAccumulate WindowPolicy = "accumulate" // страница дописывается в конец (мобильные, планшеты)
)

// PolicyFor политика окна для класса экрана. Выбирается один раз на ключ запроса
func PolicyFor(v models.ViewportClass) WindowPolicy {
	if v.Accumulates() {
		return WindowAccumulate
	}
	return WindowReplace
}

// Phase состояние просмотра каталога
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseFetching Phase = "fetching"
	PhaseSettled  Phase = "settled"
)

// Ticket выдается на каждый запрос страницы. Результат принимается
// только по билету последнего поколения
type Ticket struct {
	Key        string
	Page       int
	Generation uint64
	Append     bool

	// Query запрос, который нужно выполнить; Query.Page совпадает с Page
	Query models.CatalogQuery
}

// Snapshot копия состояния просмотра
type Snapshot struct {
	Key        string            `json:"key"`
	Phase      Phase             `json:"phase"`
	Policy     WindowPolicy      `json:"policy"`
	Page       int               `json:"page"`
	Products   []models.Product  `json:"products"`
	Pagination models.Pagination `json:"pagination"`
	Truncated  bool              `json:"truncated,omitempty"`
}

// HasMore можно ли подгрузить следующую страницу
func (s Snapshot) HasMore() bool {
	return s.Policy == WindowAccumulate && s.Phase == PhaseSettled && s.Pagination.HasMore()
}

// Reconciler согласует ответы внешнего API с отображаемым списком одной сессии.
//
// Idle(page=0) -> Fetching(page=p) -> Settled(page=p, list). Смена ключа
// запроса (фильтры, сортировка, поиск, класс экрана) сбрасывает просмотр.
// Каждый Begin и NextPage увеличивает поколение, поэтому ответ, пришедший
// после более нового запроса, отбрасывается с utils.ErrStaleResult
type Reconciler struct {
	mu sync.Mutex

	maxAccumulated int

	key        string
	query      models.CatalogQuery
	policy     WindowPolicy
	phase      Phase
	page       int
	generation uint64
	products   []models.Product
	pagination models.Pagination
	truncated  bool
}

// NewReconciler создает просмотр в состоянии Idle. maxAccumulated ограничивает
// накопленный список; 0 снимает ограничение
func NewReconciler(maxAccumulated int) *Reconciler {
	return &Reconciler{
		maxAccumulated: maxAccumulated,
		policy:         WindowReplace,
		phase:          PhaseIdle,
	}
}

// Begin начинает загрузку страницы q.Page как новую навигацию: список будет
// заменен независимо от политики окна. Если ключ запроса изменился,
// накопленное состояние сбрасывается до Idle(page=0)
func (r *Reconciler) Begin(q models.CatalogQuery) Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := q.Key()
	if key != r.key {
		r.resetLocked(key, PolicyFor(q.Viewport))
	}

	page := q.Page
	if page < 1 {
		page = 1
	}

	q.Page = page
	r.query = q
	r.generation++
	r.phase = PhaseFetching
	return Ticket{Key: r.key, Page: page, Generation: r.generation, Query: q}
}

// NextPage начинает подгрузку следующей страницы для накопительной политики
func (r *Reconciler) NextPage() (Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.phase == PhaseIdle:
		return Ticket{}, utils.ErrBrowseNotFound
	case r.policy != WindowAccumulate:
		return Ticket{}, utils.ErrNotAccumulating
	case r.phase == PhaseFetching:
		return Ticket{}, utils.ErrFetchInProgress
	case !r.pagination.HasMore():
		return Ticket{}, utils.ErrNoMorePages
	case r.maxAccumulated > 0 && len(r.products) >= r.maxAccumulated:
		return Ticket{}, utils.ErrWindowFull
	}

	q := r.query
	q.Page = r.page + 1

	r.generation++
	r.phase = PhaseFetching
	return Ticket{Key: r.key, Page: q.Page, Generation: r.generation, Append: true, Query: q}, nil
}

// Settle принимает результат по билету. Устаревший билет не меняет состояние
func (r *Reconciler) Settle(t Ticket, result models.ProductPage) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.currentLocked(t) {
		return r.snapshotLocked(), utils.ErrStaleResult
	}

	products := result.Products
	if products == nil {
		products = make([]models.Product, 0)
	}

	if t.Append && r.policy == WindowAccumulate {
		merged := make([]models.Product, 0, len(r.products)+len(products))
		merged = append(merged, r.products...)
		merged = append(merged, products...)
		products = merged
	} else {
		products = append([]models.Product(nil), products...)
		r.truncated = false
	}

	if r.policy == WindowAccumulate && r.maxAccumulated > 0 && len(products) > r.maxAccumulated {
		products = products[:r.maxAccumulated]
		r.truncated = true
	}

	r.products = products
	r.pagination = result.Pagination
	r.page = t.Page
	r.phase = PhaseSettled
	return r.snapshotLocked(), nil
}

// Fail снимает состояние загрузки после ошибки. Уже показанный список сохраняется
func (r *Reconciler) Fail(t Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.currentLocked(t) {
		return utils.ErrStaleResult
	}
	if r.page > 0 {
		r.phase = PhaseSettled
	} else {
		r.phase = PhaseIdle
	}
	return nil
}

// Snapshot текущее состояние
func (r *Reconciler) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Reconciler) currentLocked(t Ticket) bool {
	return t.Generation == r.generation && t.Key == r.key && r.phase == PhaseFetching
}

func (r *Reconciler) resetLocked(key string, policy WindowPolicy) {
	r.key = key
	r.query = models.CatalogQuery{}
	r.policy = policy
	r.phase = PhaseIdle
	r.page = 0
	r.products = nil
	r.pagination = models.Pagination{}
	r.truncated = false
}

func (r *Reconciler) snapshotLocked() Snapshot {
	products := make([]models.Product, len(r.products))
	copy(products, r.products)
	return Snapshot{
		Key:        r.key,
		Phase:      r.phase,
		Policy:     r.policy,
		Page:       r.page,
		Products:   products,
		Pagination: r.pagination,
		Truncated:  r.truncated,
	}
}
