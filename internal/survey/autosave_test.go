package survey_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"surveyline/internal/domain"
	"surveyline/internal/logger"
	"surveyline/internal/survey"
)

func TestCoordinatorDirtyTracking(t *testing.T) {
	store := &fakeStore{}
	c := &survey.Coordinator{Store: store, Log: logger.Nop(), Now: func() time.Time { return fixedNow }}
	ctx := context.Background()
	snap := survey.NewSurvey("owner-1", "Draft")

	if _, ok := c.LastSavedAt(); ok || c.Dirty() {
		t.Fatalf("fresh coordinator should be clean")
	}
	c.MarkDirty()
	v := c.Version()
	c.MarkDirty() // edit lands while the save is in flight
	if _, err := c.SaveNow(ctx, snap, v); err != nil {
		t.Fatal(err)
	}
	if !c.Dirty() {
		t.Fatalf("later edit should keep the document dirty")
	}
	if at, ok := c.LastSavedAt(); !ok || !at.Equal(fixedNow) {
		t.Fatalf("lastSavedAt not recorded: %v", at)
	}
	if _, err := c.SaveNow(ctx, snap, c.Version()); err != nil || c.Dirty() {
		t.Fatalf("save of latest version should clear dirty: %v", err)
	}
}

func TestCoordinatorSaveNowFailureLeavesState(t *testing.T) {
	store := &fakeStore{err: errors.New("backend down")}
	c := &survey.Coordinator{Store: store, Now: func() time.Time { return fixedNow }}
	c.MarkDirty()
	_, err := c.SaveNow(context.Background(), survey.NewSurvey("o", "t"), c.Version())
	var perr domain.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if !c.Dirty() {
		t.Fatalf("failed save cleared dirty")
	}
	if _, ok := c.LastSavedAt(); ok {
		t.Fatalf("failed save set lastSavedAt")
	}
}

func TestAutosaveOnceSkipsCleanAndBlank(t *testing.T) {
	store := &fakeStore{}
	c := &survey.Coordinator{Store: store}
	ctx := context.Background()
	if _, ok := c.AutosaveOnce(ctx, survey.NewSurvey("o", "t"), c.Version()); ok || store.count() != 0 {
		t.Fatalf("clean document should not be saved")
	}
	c.MarkDirty()
	if _, ok := c.AutosaveOnce(ctx, survey.NewSurvey("o", ""), c.Version()); ok || store.count() != 0 {
		t.Fatalf("blank document should not be saved")
	}
	if _, ok := c.AutosaveOnce(ctx, survey.NewSurvey("o", "t"), c.Version()); !ok || store.count() != 1 {
		t.Fatalf("dirty document should be saved")
	}
}

func TestCoordinatorRunStopsOnCancel(t *testing.T) {
	c := &survey.Coordinator{Store: &fakeStore{}, Interval: time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())
	ticks := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		c.Run(ctx, func(context.Context) {
			select {
			case ticks <- struct{}{}:
			default:
			}
		})
		close(done)
	}()
	select {
	case <-ticks:
	case <-time.After(2 * time.Second):
		t.Fatalf("autosave never ticked")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop after cancel")
	}
}

func TestAutosaveOnceSkipsSnapshotOlderThanSaved(t *testing.T) {
	store := &fakeStore{}
	c := &survey.Coordinator{Store: store, Log: logger.Nop()}
	ctx := context.Background()

	c.MarkDirty()
	old := c.Version()
	c.MarkDirty()
	if _, err := c.SaveNow(ctx, survey.NewSurvey("owner-1", "Newer"), c.Version()); err != nil {
		t.Fatal(err)
	}
	c.MarkDirty()
	if _, ok := c.AutosaveOnce(ctx, survey.NewSurvey("owner-1", "Older"), old); ok {
		t.Fatalf("autosave wrote a snapshot older than the last save")
	}
	if got := store.last().Title; got != "Newer" {
		t.Fatalf("store holds %q", got)
	}
	if _, ok := c.AutosaveOnce(ctx, survey.NewSurvey("owner-1", "Latest"), c.Version()); !ok {
		t.Fatalf("autosave of the latest version should run")
	}
}

// gatedStore blocks its first save until release is closed.
type gatedStore struct {
	fakeStore
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (s *gatedStore) SaveSurvey(ctx context.Context, sv domain.Survey) (domain.Survey, error) {
	first := false
	s.once.Do(func() { first = true })
	if first {
		close(s.entered)
		<-s.release
	}
	return s.fakeStore.SaveSurvey(ctx, sv)
}

func TestSlowAutosaveDoesNotOverwritePublish(t *testing.T) {
	store := &gatedStore{entered: make(chan struct{}), release: make(chan struct{})}
	e := newEditor(store)
	ctx := context.Background()
	title := "Feedback"
	e.SetMetadata(survey.Metadata{Title: &title})
	q, err := e.AddQuestionOfType(domain.TypeText)
	if err != nil {
		t.Fatal(err)
	}

	autosaved := make(chan bool)
	go func() { autosaved <- e.AutosaveOnce(ctx) }()
	<-store.entered

	edited := "Edited"
	if _, err := e.UpdateQuestion(q.ID, domain.QuestionPatch{Title: &edited}); err != nil {
		t.Fatal(err)
	}
	published := make(chan error)
	go func() {
		_, err := e.Publish(ctx)
		published <- err
	}()
	close(store.release)
	if !<-autosaved {
		t.Fatalf("autosave did not run")
	}
	if err := <-published; err != nil {
		t.Fatalf("publish: %v", err)
	}

	last := store.last()
	if last.Status != domain.StatusPublished || last.Questions[0].Title != "Edited" {
		t.Fatalf("store holds status=%s title=%q", last.Status, last.Questions[0].Title)
	}
	if st := e.State(); st.Dirty || st.Survey.Status != domain.StatusPublished {
		t.Fatalf("editor state: dirty=%v status=%s", st.Dirty, st.Survey.Status)
	}
}
