package notes

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/warp-contracts/invoice-syncer/src/utils/model"
	monitor_reconciler "github.com/warp-contracts/invoice-syncer/src/utils/monitoring/reconciler"
)

const (
	author = "0x00000000000000000000000000000000000000aa"
	reader = "0x00000000000000000000000000000000000000bb"
)

type fakeWriter struct {
	mtx       sync.Mutex
	nextId    int64
	createErr error
	openErr   error
	opened    []int64

	// Runs while the note transaction is being mined
	whileMining func(noteId *big.Int)
}

func (self *fakeWriter) Author() string {
	return author
}

func (self *fakeWriter) CreateNote(ctx context.Context, orderId *big.Int, author string, content string, share bool) (*big.Int, string, error) {
	self.mtx.Lock()
	if self.createErr != nil {
		self.mtx.Unlock()
		return nil, "", self.createErr
	}
	self.nextId++
	noteId := big.NewInt(self.nextId)
	whileMining := self.whileMining
	self.mtx.Unlock()

	if whileMining != nil {
		whileMining(noteId)
	}
	return noteId, "0xtx", nil
}

func (self *fakeWriter) SetNoteOpenState(ctx context.Context, orderId, noteId *big.Int, open bool) (string, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	if self.openErr != nil {
		return "", self.openErr
	}
	self.opened = append(self.opened, noteId.Int64())
	return "0xopen", nil
}

type fakeFetcher struct {
	notes []*model.ThreadNote
}

func (self *fakeFetcher) FetchNotes(ctx context.Context, orderId *big.Int) []*model.ThreadNote {
	return cloneNotes(self.notes)
}

func TestThreadTestSuite(t *testing.T) {
	suite.Run(t, new(ThreadTestSuite))
}

type ThreadTestSuite struct {
	suite.Suite
	ctx     context.Context
	writer  *fakeWriter
	fetcher *fakeFetcher
	monitor *monitor_reconciler.Monitor
	thread  *Thread
}

func (s *ThreadTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.writer = &fakeWriter{}
	s.fetcher = &fakeFetcher{}
	s.monitor = monitor_reconciler.NewMonitor()
	s.thread = NewThread(big.NewInt(7)).
		WithWriter(s.writer).
		WithFetcher(s.fetcher).
		WithMonitor(s.monitor)
}

func (s *ThreadTestSuite) TestPostStaysPendingUntilIndexed() {
	note, err := s.thread.Post(s.ctx, "hello", true)
	s.Require().NoError(err)
	s.Require().Equal(int64(1), note.NoteId.Int64())
	s.Require().True(note.Pending)
	s.Require().Equal("0xtx", note.TxHash)
	s.Require().Equal(uint64(1), s.monitor.GetReport().Notes.State.Created.Load())

	// Indexer hasn't caught up
	notes := s.thread.Refresh(s.ctx)
	s.Require().Len(notes, 1)
	s.Require().True(notes[0].Pending)

	s.fetcher.notes = []*model.ThreadNote{{OrderId: big.NewInt(7), NoteId: big.NewInt(1), Author: author, Share: true, Message: "hello"}}
	notes = s.thread.Refresh(s.ctx)
	s.Require().Len(notes, 1)
	s.Require().False(notes[0].Pending)
	s.Require().Equal("0xtx", notes[0].TxHash)
}

func (s *ThreadTestSuite) TestPostFailureRemovesPending() {
	s.writer.createErr = errors.New("reverted")

	_, err := s.thread.Post(s.ctx, "hello", false)
	s.Require().Error(err)
	s.Require().Empty(s.thread.Notes())
	s.Require().Equal(uint64(1), s.monitor.GetReport().Notes.Errors.Create.Load())

	_, err = s.thread.Post(s.ctx, "  ", false)
	s.Require().ErrorIs(err, ErrEmptyMessage)
}

func (s *ThreadTestSuite) TestRefreshNeverClosesNote() {
	s.fetcher.notes = []*model.ThreadNote{
		{OrderId: big.NewInt(7), NoteId: big.NewInt(2), Author: author, Share: true, Opened: true},
		{OrderId: big.NewInt(7), NoteId: big.NewInt(1), Author: author, Share: true},
	}
	notes := s.thread.Refresh(s.ctx)
	s.Require().Len(notes, 2)
	s.Require().Equal(int64(1), notes[0].NoteId.Int64())
	s.Require().True(notes[1].Opened)

	// Stale indexer page
	s.fetcher.notes[0].Opened = false
	notes = s.thread.Refresh(s.ctx)
	s.Require().True(notes[1].Opened)
}

func (s *ThreadTestSuite) TestOpenWritesOnceForSharedNoteOfOthers() {
	s.fetcher.notes = []*model.ThreadNote{
		{OrderId: big.NewInt(7), NoteId: big.NewInt(1), Author: author, Share: true},
		{OrderId: big.NewInt(7), NoteId: big.NewInt(2), Author: author, Share: false},
	}
	s.thread.Refresh(s.ctx)

	// Author opening own note
	s.Require().NoError(s.thread.Open(s.ctx, big.NewInt(1), author))
	s.Require().Empty(s.writer.opened)

	// Private note
	s.Require().NoError(s.thread.Open(s.ctx, big.NewInt(2), reader))
	s.Require().Empty(s.writer.opened)

	s.Require().NoError(s.thread.Open(s.ctx, big.NewInt(1), reader))
	s.Require().NoError(s.thread.Open(s.ctx, big.NewInt(1), reader))
	s.Require().Equal([]int64{1}, s.writer.opened)
	s.Require().True(s.thread.Notes()[0].Opened)

	s.Require().ErrorIs(s.thread.Open(s.ctx, big.NewInt(3), reader), ErrNoteNotFound)
}

func (s *ThreadTestSuite) TestOpenFailureReverts() {
	s.fetcher.notes = []*model.ThreadNote{{OrderId: big.NewInt(7), NoteId: big.NewInt(1), Author: author, Share: true}}
	s.thread.Refresh(s.ctx)
	s.writer.openErr = errors.New("out of gas")

	s.Require().Error(s.thread.Open(s.ctx, big.NewInt(1), reader))
	s.Require().False(s.thread.Notes()[0].Opened)
	s.Require().Equal(uint64(1), s.monitor.GetReport().Notes.Errors.OpenState.Load())
}

func TestServiceWithoutWriter(t *testing.T) {
	service := NewService().WithFetcher(&fakeFetcher{})

	_, err := service.Post(context.Background(), big.NewInt(1), "hi", true)
	require.ErrorIs(t, err, ErrNotesDisabled)

	require.Same(t, service.Thread(big.NewInt(1)), service.Thread(big.NewInt(1)))
	service.Clear()
	require.Empty(t, service.Notes(context.Background(), big.NewInt(1)))
}

func (s *ThreadTestSuite) TestRefreshWhileMiningKeepsOneNote() {
	s.writer.whileMining = func(noteId *big.Int) {
		s.fetcher.notes = []*model.ThreadNote{{
			OrderId: big.NewInt(7),
			NoteId:  noteId,
			Author:  author,
			Message: "hello",
			Share:   true,
		}}
		s.thread.Refresh(s.ctx)
	}

	note, err := s.thread.Post(s.ctx, "hello", true)
	s.Require().NoError(err)
	s.Require().Equal(int64(1), note.NoteId.Int64())
	s.Require().Equal("0xtx", note.TxHash)
	s.Require().False(note.Pending)

	notes := s.thread.Refresh(s.ctx)
	s.Require().Len(notes, 1)
	s.Require().Equal(int64(1), notes[0].NoteId.Int64())
	s.Require().Equal("0xtx", notes[0].TxHash)
}
