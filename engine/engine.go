// Package engine implements the auction engine: participant records, the
// set of per-product books, the bidding-round and cycle drivers, and
// directive handling.
package engine

import (
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"vmxexchange/book"
	"vmxexchange/domain"
	"vmxexchange/runner"
	"vmxexchange/vm"
)

// Config holds the engine's two tunables: the number of bidding rounds
// per cycle and the VM step cap. The auction interval is not an engine
// setting; it lives in config.Config.
type Config struct {
	NumBiddingRounds int
	StepCap          int
}

// DefaultConfig matches spec defaults: 5 bidding rounds, and an
// implementation-chosen step cap generous enough for real programs but
// small enough to bound a runaway one.
var DefaultConfig = Config{NumBiddingRounds: 5, StepCap: 100_000}

// Rejection is logged by the caller (see cmd/exchange's wiring of
// zap) rather than returned to the transport boundary as a hard error;
// §7's invariant is that one bad participant never blocks the cycle.
type Rejection struct {
	Participant domain.ParticipantId
	Err         error
}

// Engine owns every participant record and every product's book. Only
// the engine mutates either; a bidding round borrows a book immutably
// and installs a freshly built replacement (see BidOneRound).
type Engine struct {
	config Config

	mu           sync.RWMutex
	participants map[domain.ParticipantId]*participantRecord

	// books is stored copy-on-write: readers (concurrent per-product
	// bidding rounds) load the whole map lock-free; a new product's first
	// book and every round's installed replacement each store a fresh copy.
	books     atomic.Value // map[domain.ProductId]*book.Book
	booksLock sync.Mutex
}

// New returns an empty engine.
func New(config Config) *Engine {
	e := &Engine{config: config, participants: make(map[domain.ParticipantId]*participantRecord)}
	e.books.Store(make(map[domain.ProductId]*book.Book))
	return e
}

func (e *Engine) booksMap() map[domain.ProductId]*book.Book {
	return e.books.Load().(map[domain.ProductId]*book.Book)
}

// bookFor returns product's book, creating it if this is the first time
// any participant has expressed interest in it. Books outlive the
// participants that created them; Leave never deletes a book.
func (e *Engine) bookFor(product domain.ProductId) *book.Book {
	if b, ok := e.booksMap()[product]; ok {
		return b
	}

	e.booksLock.Lock()
	defer e.booksLock.Unlock()

	existing := e.booksMap()
	if b, ok := existing[product]; ok {
		return b
	}

	b := book.NewBook(product)
	next := make(map[domain.ProductId]*book.Book, len(existing)+1)
	for k, v := range existing {
		next[k] = v
	}
	next[product] = b
	e.books.Store(next)
	return b
}

func (e *Engine) installBook(product domain.ProductId, next *book.Book) {
	e.booksLock.Lock()
	defer e.booksLock.Unlock()

	existing := e.booksMap()
	updated := make(map[domain.ProductId]*book.Book, len(existing))
	for k, v := range existing {
		updated[k] = v
	}
	updated[product] = next
	e.books.Store(updated)
}

// ApplyDirective handles one directive from participant. A non-nil
// returned error is one of DuplicateJoin, UnknownParticipant, or
// *vm.ParseError; per §7 these are rejections to be logged, not escaped
// to the transport boundary as hard failures.
func (e *Engine) ApplyDirective(participant domain.ParticipantId, d Directive) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	record, known := e.participants[participant]

	switch directive := d.(type) {
	case Join:
		if known {
			return &DuplicateJoin{Participant: participant}
		}
		e.participants[participant] = newParticipantRecord()
		return nil

	case Leave:
		if !known {
			return &UnknownParticipant{Participant: participant}
		}
		delete(e.participants, participant)
		e.removeParticipantOrders(participant, record)
		return nil

	case SubmitProgram:
		if !known {
			return &UnknownParticipant{Participant: participant}
		}
		program, err := vm.Assemble(directive.Source)
		if err != nil {
			return err
		}
		entry := record.entry(directive.Product, true)
		entry.program = program
		return nil

	case UpdateParameter:
		if !known {
			return &UnknownParticipant{Participant: participant}
		}
		entry := record.entry(directive.Product, true)
		entry.parameters[directive.ParamIdx] = directive.Value
		return nil

	default:
		return &UnknownParticipant{Participant: participant}
	}
}

func (e *Engine) removeParticipantOrders(participant domain.ParticipantId, record *participantRecord) {
	for product := range record.products {
		b := e.bookFor(product)
		for _, o := range b.ParticipantOrders(participant, domain.Bid) {
			b.RemoveOrder(participant, domain.Bid, o.Price)
		}
		for _, o := range b.ParticipantOrders(participant, domain.Offer) {
			b.RemoveOrder(participant, domain.Offer, o.Price)
		}
	}
}

// products returns every product any participant currently has a
// program or parameters for, plus every product that already has a
// book, deduplicated. This is the set a Cycle iterates.
func (e *Engine) products() []domain.ProductId {
	seen := make(map[domain.ProductId]struct{})
	for product := range e.booksMap() {
		seen[product] = struct{}{}
	}
	for _, record := range e.participants {
		for product := range record.products {
			seen[product] = struct{}{}
		}
	}
	products := make([]domain.ProductId, 0, len(seen))
	for product := range seen {
		products = append(products, product)
	}
	sort.Slice(products, func(i, j int) bool { return products[i] < products[j] })
	return products
}

// interestedParticipants returns, sorted by ParticipantId, every
// participant with a program installed for product. Sorting makes
// iteration order deterministic across rounds, as §4.4 requires.
func (e *Engine) interestedParticipants(product domain.ProductId) []runner.Participant {
	var out []runner.Participant
	for id, record := range e.participants {
		entry := record.entry(product, false)
		if entry == nil || entry.program == nil {
			continue
		}
		out = append(out, runner.Participant{ID: id, Program: entry.program, Parameters: entry.parameters})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// BidOneRound runs a single bidding round for product: every interested
// participant's program executes against the current book, and the
// product's book is atomically replaced with the merged result.
// Rejections (execution failures, step cap, self-cross) are returned for
// the caller to log; the affected participant's previous orders are
// still merged into the next book.
func (e *Engine) BidOneRound(product domain.ProductId) []Rejection {
	e.mu.RLock()
	participants := e.interestedParticipants(product)
	e.mu.RUnlock()

	prevBook := e.bookFor(product)
	nextBook := book.NewBook(product)

	var rejections []Rejection
	for _, participant := range participants {
		proposed, err := runner.Run(prevBook, product, participant, e.config.StepCap)
		if err != nil {
			rejections = append(rejections, Rejection{Participant: participant.ID, Err: err})
		}
		for _, o := range proposed {
			if o.Quantity == 0 {
				continue
			}
			nextBook.UpdateOrInsertOrder(o)
		}
	}

	e.installBook(product, nextBook)
	return rejections
}

// CycleResult is everything one auction cycle produced.
type CycleResult struct {
	Trades     []domain.Trade
	Rejections []Rejection
}

// RunCycle runs config.NumBiddingRounds bidding rounds over every
// product the engine currently knows about, then matches every book.
// Distinct products' rounds run concurrently on a pool sized to
// runtime.NumCPU(); within one product, rounds run strictly in sequence
// since round k+1 must see round k's result.
func (e *Engine) RunCycle() CycleResult {
	products := e.products()

	type productOutcome struct {
		trades     []domain.Trade
		rejections []Rejection
	}
	outcomes := make([]productOutcome, len(products))

	workers := runtime.NumCPU()
	if workers > len(products) {
		workers = len(products)
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int, len(products))
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				product := products[i]
				var rejections []Rejection
				for round := 0; round < e.config.NumBiddingRounds; round++ {
					rejections = append(rejections, e.BidOneRound(product)...)
				}
				trades := book.Match(product, e.bookFor(product))
				outcomes[i] = productOutcome{trades: trades, rejections: rejections}
			}
		}()
	}
	for i := range products {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	var result CycleResult
	for _, outcome := range outcomes {
		result.Trades = append(result.Trades, outcome.trades...)
		result.Rejections = append(result.Rejections, outcome.rejections...)
	}
	return result
}
