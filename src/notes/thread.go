package notes

import (
	"context"
	"math/big"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/warp-contracts/invoice-syncer/src/utils/logger"
	"github.com/warp-contracts/invoice-syncer/src/utils/model"
	"github.com/warp-contracts/invoice-syncer/src/utils/monitoring"
)

// Note transactions
type Writer interface {
	Author() string
	CreateNote(ctx context.Context, orderId *big.Int, author string, content string, share bool) (noteId *big.Int, txHash string, err error)
	SetNoteOpenState(ctx context.Context, orderId, noteId *big.Int, open bool) (txHash string, err error)
}

// Notes as reported by the indexer
type Fetcher interface {
	FetchNotes(ctx context.Context, orderId *big.Int) []*model.ThreadNote
}

// Notes of one invoice. Local changes are shown right away and reconciled with the indexer on Refresh.
type Thread struct {
	mtx     sync.Mutex
	log     *logrus.Entry
	monitor monitoring.Monitor

	orderId *big.Int
	notes   []*model.ThreadNote

	writer  Writer
	fetcher Fetcher
}

func NewThread(orderId *big.Int) (self *Thread) {
	self = new(Thread)
	self.orderId = new(big.Int).Set(orderId)
	self.log = logger.NewSublogger("notes").WithField("order_id", orderId.String())
	return
}

func (self *Thread) WithWriter(v Writer) *Thread {
	self.writer = v
	return self
}

func (self *Thread) WithFetcher(v Fetcher) *Thread {
	self.fetcher = v
	return self
}

func (self *Thread) WithMonitor(v monitoring.Monitor) *Thread {
	self.monitor = v
	return self
}

func (self *Thread) Notes() []*model.ThreadNote {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	return cloneNotes(self.notes)
}

// Adds the note as pending and sends the transaction. The note stays pending until the indexer reports it.
func (self *Thread) Post(ctx context.Context, message string, share bool) (note *model.ThreadNote, err error) {
	if self.writer == nil {
		return nil, ErrNotesDisabled
	}
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	pending := &model.ThreadNote{
		OrderId: new(big.Int).Set(self.orderId),
		Author:  strings.ToLower(self.writer.Author()),
		Share:   share,
		Message: message,
		Pending: true,
	}

	self.mtx.Lock()
	self.notes = append(self.notes, pending)
	self.mtx.Unlock()

	noteId, txHash, err := self.writer.CreateNote(ctx, self.orderId, pending.Author, message, share)

	self.mtx.Lock()
	defer self.mtx.Unlock()

	if err != nil {
		self.remove(pending)
		self.log.WithError(err).Error("Failed to create note")
		if self.monitor != nil {
			self.monitor.GetReport().Notes.Errors.Create.Inc()
		}
		return nil, err
	}

	pending.NoteId = noteId
	pending.TxHash = txHash
	if self.monitor != nil {
		self.monitor.GetReport().Notes.State.Created.Inc()
	}

	// A refresh may have fetched the note while the transaction was mined
	if indexed := self.find(noteId, pending); indexed != nil {
		self.remove(pending)
		if indexed.TxHash == "" {
			indexed.TxHash = txHash
		}
		pending = indexed
	}
	self.sort()

	n := *pending
	return &n, nil
}

func (self *Thread) find(noteId *big.Int, skip *model.ThreadNote) *model.ThreadNote {
	if noteId == nil {
		return nil
	}
	for _, n := range self.notes {
		if n != skip && n.NoteId != nil && n.NoteId.Cmp(noteId) == 0 {
			return n
		}
	}
	return nil
}

func (self *Thread) remove(note *model.ThreadNote) {
	for i, n := range self.notes {
		if n == note {
			self.notes = append(self.notes[:i], self.notes[i+1:]...)
			return
		}
	}
}

// Merges indexer notes. A note that was opened stays opened.
func (self *Thread) Refresh(ctx context.Context) []*model.ThreadNote {
	if self.fetcher == nil {
		return self.Notes()
	}

	fetched := self.fetcher.FetchNotes(ctx, self.orderId)

	self.mtx.Lock()
	defer self.mtx.Unlock()

	byId := make(map[string]*model.ThreadNote, len(self.notes))
	unique := self.notes[:0]
	for _, note := range self.notes {
		if note.NoteId == nil {
			unique = append(unique, note)
			continue
		}
		if existing, ok := byId[note.NoteId.String()]; ok {
			existing.Opened = existing.Opened || note.Opened
			if existing.TxHash == "" {
				existing.TxHash = note.TxHash
			}
			continue
		}
		byId[note.NoteId.String()] = note
		unique = append(unique, note)
	}
	self.notes = unique

	for _, incoming := range fetched {
		if incoming.NoteId == nil {
			continue
		}
		existing, ok := byId[incoming.NoteId.String()]
		if !ok {
			n := *incoming
			n.Pending = false
			self.notes = append(self.notes, &n)
			byId[incoming.NoteId.String()] = &n
			continue
		}

		existing.Pending = false
		existing.Opened = existing.Opened || incoming.Opened
		if incoming.Message != "" {
			existing.Message = incoming.Message
		}
		if incoming.Author != "" {
			existing.Author = incoming.Author
		}
		existing.Share = incoming.Share
	}

	self.sort()
	return cloneNotes(self.notes)
}

// Marks the note as opened by the viewer. Open state is written on chain only
// the first time a shared note is opened by someone other than its author.
func (self *Thread) Open(ctx context.Context, noteId *big.Int, viewer string) (err error) {
	self.mtx.Lock()
	var note *model.ThreadNote
	for _, n := range self.notes {
		if n.NoteId != nil && n.NoteId.Cmp(noteId) == 0 {
			note = n
			break
		}
	}
	if note == nil {
		self.mtx.Unlock()
		return ErrNoteNotFound
	}
	if note.Opened || !note.Share || model.SameAddress(note.Author, viewer) {
		self.mtx.Unlock()
		return nil
	}
	if self.writer == nil {
		self.mtx.Unlock()
		return ErrNotesDisabled
	}
	note.Opened = true
	self.mtx.Unlock()

	_, err = self.writer.SetNoteOpenState(ctx, self.orderId, noteId, true)
	if err != nil {
		self.mtx.Lock()
		note.Opened = false
		self.mtx.Unlock()

		self.log.WithError(err).WithField("note_id", noteId.String()).Error("Failed to persist note open state")
		if self.monitor != nil {
			self.monitor.GetReport().Notes.Errors.OpenState.Inc()
		}
		return
	}

	if self.monitor != nil {
		self.monitor.GetReport().Notes.State.OpenStatesSet.Inc()
	}
	return nil
}

// Confirmed notes by id, unsent ones last
func (self *Thread) sort() {
	sort.SliceStable(self.notes, func(i, j int) bool {
		a, b := self.notes[i].NoteId, self.notes[j].NoteId
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Cmp(b) < 0
		}
	})
}

func cloneNotes(in []*model.ThreadNote) []*model.ThreadNote {
	out := make([]*model.ThreadNote, len(in))
	for i, note := range in {
		n := *note
		out[i] = &n
	}
	return out
}
