package collection

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/nicunursekatie/sandwichsync-sub003/internal/domain"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/repository"
)

type stubHostRepository struct {
	hosts map[string]*domain.Host
}

func newStubHosts() *stubHostRepository {
	return &stubHostRepository{hosts: make(map[string]*domain.Host)}
}

func (s *stubHostRepository) CreateHost(ctx context.Context, host *domain.Host) error {
	for _, existing := range s.hosts {
		if existing.Name == host.Name {
			return repository.ErrConflict
		}
	}
	s.hosts[host.ID] = host
	return nil
}

func (s *stubHostRepository) GetHostByID(ctx context.Context, id string) (*domain.Host, error) {
	if host, ok := s.hosts[id]; ok {
		copied := *host
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubHostRepository) GetHostByName(ctx context.Context, name string) (*domain.Host, error) {
	for _, host := range s.hosts {
		if host.Name == name {
			copied := *host
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *stubHostRepository) ListHosts(ctx context.Context, status string) ([]domain.Host, error) {
	var out []domain.Host
	for _, host := range s.hosts {
		if status == "" || host.Status == status {
			out = append(out, *host)
		}
	}
	return out, nil
}

func (s *stubHostRepository) UpdateHost(ctx context.Context, host *domain.Host) error {
	if _, ok := s.hosts[host.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *host
	s.hosts[host.ID] = &copied
	return nil
}

func (s *stubHostRepository) DeleteHost(ctx context.Context, id string) error {
	delete(s.hosts, id)
	return nil
}

type stubRecipientRepository struct {
	recipients map[string]*domain.Recipient
}

func newStubRecipients() *stubRecipientRepository {
	return &stubRecipientRepository{recipients: make(map[string]*domain.Recipient)}
}

func (s *stubRecipientRepository) CreateRecipient(ctx context.Context, recipient *domain.Recipient) error {
	s.recipients[recipient.ID] = recipient
	return nil
}

func (s *stubRecipientRepository) GetRecipientByID(ctx context.Context, id string) (*domain.Recipient, error) {
	if recipient, ok := s.recipients[id]; ok {
		copied := *recipient
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubRecipientRepository) ListRecipients(ctx context.Context, status string) ([]domain.Recipient, error) {
	var out []domain.Recipient
	for _, recipient := range s.recipients {
		if status == "" || recipient.Status == status {
			out = append(out, *recipient)
		}
	}
	return out, nil
}

func (s *stubRecipientRepository) UpdateRecipient(ctx context.Context, recipient *domain.Recipient) error {
	if _, ok := s.recipients[recipient.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *recipient
	s.recipients[recipient.ID] = &copied
	return nil
}

func (s *stubRecipientRepository) DeleteRecipient(ctx context.Context, id string) error {
	delete(s.recipients, id)
	return nil
}

type stubCollectionRepository struct {
	entries map[int64]*domain.SandwichCollection
	nextID  int64
}

func newStubCollections() *stubCollectionRepository {
	return &stubCollectionRepository{entries: make(map[int64]*domain.SandwichCollection), nextID: 1}
}

func (s *stubCollectionRepository) CreateCollection(ctx context.Context, collection *domain.SandwichCollection) error {
	collection.ID = s.nextID
	s.nextID++
	copied := *collection
	s.entries[collection.ID] = &copied
	return nil
}

func (s *stubCollectionRepository) GetCollectionByID(ctx context.Context, id int64) (*domain.SandwichCollection, error) {
	if entry, ok := s.entries[id]; ok {
		copied := *entry
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubCollectionRepository) FindCollection(ctx context.Context, date time.Time, hostName string, individualCount int) (*domain.SandwichCollection, error) {
	for _, entry := range s.entries {
		if entry.CollectionDate.Equal(date) && entry.HostName == hostName && entry.IndividualCount == individualCount {
			copied := *entry
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *stubCollectionRepository) ListCollections(ctx context.Context, filter repository.CollectionFilter) ([]domain.SandwichCollection, error) {
	var out []domain.SandwichCollection
	for _, entry := range s.entries {
		if filter.HostName != "" && entry.HostName != filter.HostName {
			continue
		}
		out = append(out, *entry)
	}
	return out, nil
}

func (s *stubCollectionRepository) UpdateCollection(ctx context.Context, collection *domain.SandwichCollection) error {
	if _, ok := s.entries[collection.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *collection
	s.entries[collection.ID] = &copied
	return nil
}

func (s *stubCollectionRepository) DeleteCollection(ctx context.Context, id int64) error {
	if _, ok := s.entries[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.entries, id)
	return nil
}

func (s *stubCollectionRepository) DeleteCollectionsByHost(ctx context.Context, hostName string) (int64, error) {
	var removed int64
	for id, entry := range s.entries {
		if entry.HostName == hostName {
			delete(s.entries, id)
			removed++
		}
	}
	return removed, nil
}

func (s *stubCollectionRepository) CollectionTotals(ctx context.Context) (domain.CollectionTotals, error) {
	totals := domain.CollectionTotals{}
	for _, entry := range s.entries {
		totals.Entries++
		totals.IndividualTotal += int64(entry.IndividualCount)
		totals.GroupTotal += int64(entry.GroupTotal())
	}
	totals.CompleteTotal = totals.IndividualTotal + totals.GroupTotal
	return totals, nil
}

func (s *stubCollectionRepository) HostTotals(ctx context.Context) ([]domain.HostTotal, error) {
	byHost := make(map[string]*domain.HostTotal)
	for _, entry := range s.entries {
		total, ok := byHost[entry.HostName]
		if !ok {
			total = &domain.HostTotal{HostName: entry.HostName}
			byHost[entry.HostName] = total
		}
		total.Entries++
		total.CompleteTotal += int64(entry.Total())
	}
	var out []domain.HostTotal
	for _, total := range byHost {
		out = append(out, *total)
	}
	return out, nil
}

func (s *stubCollectionRepository) WeeklyTotals(ctx context.Context, weeks int) ([]domain.WeeklyTotal, error) {
	return nil, nil
}

func testService(hosts *stubHostRepository, recipients *stubRecipientRepository, collections *stubCollectionRepository) Service {
	return New(hosts, recipients, collections, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func hostManager() *domain.User {
	return &domain.User{ID: "adm", Role: domain.RoleAdmin, Active: true}
}

func logger(id string) *domain.User {
	return &domain.User{ID: id, Role: domain.RoleVolunteer, Active: true}
}

func seedHost(t *testing.T, svc Service, name string) *domain.Host {
	t.Helper()
	host, err := svc.CreateHost(context.Background(), hostManager(), HostInput{Name: name})
	if err != nil {
		t.Fatalf("seed host %s: %v", name, err)
	}
	return host
}

func TestCreateHostDuplicateName(t *testing.T) {
	svc := testService(newStubHosts(), newStubRecipients(), newStubCollections())
	seedHost(t, svc, "Dunwoody")
	if _, err := svc.CreateHost(context.Background(), hostManager(), HostInput{Name: "Dunwoody"}); !errors.Is(err, ErrHostExists) {
		t.Fatalf("expected ErrHostExists, got %v", err)
	}
}

func TestCreateHostRequiresCapability(t *testing.T) {
	svc := testService(newStubHosts(), newStubRecipients(), newStubCollections())
	if _, err := svc.CreateHost(context.Background(), logger("vol"), HostInput{Name: "x"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestLogEntryUnknownHost(t *testing.T) {
	svc := testService(newStubHosts(), newStubRecipients(), newStubCollections())
	input := EntryInput{CollectionDate: time.Now(), HostName: "Ghost", IndividualCount: 5}
	if _, err := svc.LogEntry(context.Background(), logger("vol"), input); err == nil {
		t.Fatal("expected error for unknown host")
	}
}

func TestLogEntryInactiveHost(t *testing.T) {
	hosts := newStubHosts()
	svc := testService(hosts, newStubRecipients(), newStubCollections())
	host := seedHost(t, svc, "Closed Site")
	host.Status = "inactive"
	hosts.hosts[host.ID] = host

	input := EntryInput{CollectionDate: time.Now(), HostName: "Closed Site", IndividualCount: 5}
	if _, err := svc.LogEntry(context.Background(), logger("vol"), input); err == nil {
		t.Fatal("expected error for inactive host")
	}
}

func TestLogEntryRecordsTotals(t *testing.T) {
	collections := newStubCollections()
	svc := testService(newStubHosts(), newStubRecipients(), collections)
	seedHost(t, svc, "Roswell")

	entry, err := svc.LogEntry(context.Background(), logger("vol"), EntryInput{
		CollectionDate:  time.Now(),
		HostName:        "Roswell",
		IndividualCount: 40,
		GroupCollections: []domain.GroupCollection{
			{GroupName: "Scouts", SandwichCount: 60},
		},
	})
	if err != nil {
		t.Fatalf("LogEntry returned error: %v", err)
	}
	if entry.ID == 0 {
		t.Fatal("entry id not assigned")
	}
	if entry.Total() != 100 {
		t.Fatalf("total = %d, want 100", entry.Total())
	}

	totals, err := svc.Totals(context.Background())
	if err != nil {
		t.Fatalf("Totals returned error: %v", err)
	}
	if totals.CompleteTotal != 100 || totals.Entries != 1 {
		t.Fatalf("unexpected totals: %+v", totals)
	}
}

func TestLogEntryRejectsNegativeCounts(t *testing.T) {
	svc := testService(newStubHosts(), newStubRecipients(), newStubCollections())
	seedHost(t, svc, "Roswell")
	input := EntryInput{CollectionDate: time.Now(), HostName: "Roswell", IndividualCount: -1}
	if _, err := svc.LogEntry(context.Background(), logger("vol"), input); err == nil {
		t.Fatal("expected error for negative count")
	}
}

func TestUpdateEntrySubmitterOrManager(t *testing.T) {
	collections := newStubCollections()
	svc := testService(newStubHosts(), newStubRecipients(), collections)
	seedHost(t, svc, "Roswell")

	entry, err := svc.LogEntry(context.Background(), logger("owner"), EntryInput{
		CollectionDate: time.Now(), HostName: "Roswell", IndividualCount: 10,
	})
	if err != nil {
		t.Fatalf("log: %v", err)
	}

	update := EntryInput{CollectionDate: entry.CollectionDate, HostName: "Roswell", IndividualCount: 12}
	if _, err := svc.UpdateEntry(context.Background(), logger("stranger"), entry.ID, update); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	updated, err := svc.UpdateEntry(context.Background(), logger("owner"), entry.ID, update)
	if err != nil {
		t.Fatalf("owner update failed: %v", err)
	}
	if updated.IndividualCount != 12 {
		t.Fatalf("count = %d, want 12", updated.IndividualCount)
	}
}

func TestDeleteHostRemovesCollections(t *testing.T) {
	hosts := newStubHosts()
	collections := newStubCollections()
	svc := testService(hosts, newStubRecipients(), collections)
	host := seedHost(t, svc, "Roswell")

	for i := 0; i < 3; i++ {
		if _, err := svc.LogEntry(context.Background(), logger("vol"), EntryInput{
			CollectionDate: time.Now().Add(time.Duration(i) * time.Hour), HostName: "Roswell", IndividualCount: 10 + i,
		}); err != nil {
			t.Fatalf("log %d: %v", i, err)
		}
	}

	if err := svc.DeleteHost(context.Background(), hostManager(), host.ID); err != nil {
		t.Fatalf("DeleteHost returned error: %v", err)
	}
	if len(collections.entries) != 0 {
		t.Fatalf("collections not removed: %d remaining", len(collections.entries))
	}
}

func TestPurgeHostEntriesKeepsHost(t *testing.T) {
	hosts := newStubHosts()
	collections := newStubCollections()
	svc := testService(hosts, newStubRecipients(), collections)
	host := seedHost(t, svc, "Roswell")
	seedHost(t, svc, "Dunwoody")

	for i, name := range []string{"Roswell", "Roswell", "Dunwoody"} {
		if _, err := svc.LogEntry(context.Background(), logger("vol"), EntryInput{
			CollectionDate: time.Now().Add(time.Duration(i) * time.Hour), HostName: name, IndividualCount: 10 + i,
		}); err != nil {
			t.Fatalf("log %d: %v", i, err)
		}
	}

	if _, err := svc.PurgeHostEntries(context.Background(), logger("vol"), "Roswell"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	removed, err := svc.PurgeHostEntries(context.Background(), hostManager(), "Roswell")
	if err != nil {
		t.Fatalf("PurgeHostEntries returned error: %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
	if len(collections.entries) != 1 {
		t.Fatalf("expected the other host's entry to survive, %d remain", len(collections.entries))
	}
	if _, err := svc.GetHost(context.Background(), host.ID); err != nil {
		t.Fatalf("host should survive a purge: %v", err)
	}
}

func TestPurgeHostEntriesUnknownHost(t *testing.T) {
	svc := testService(newStubHosts(), newStubRecipients(), newStubCollections())
	if _, err := svc.PurgeHostEntries(context.Background(), hostManager(), "Ghost"); !errors.Is(err, errUnknownHost) {
		t.Fatalf("expected errUnknownHost, got %v", err)
	}
}

func TestRecipientWeeklyEstimateValidation(t *testing.T) {
	svc := testService(newStubHosts(), newStubRecipients(), newStubCollections())
	if _, err := svc.CreateRecipient(context.Background(), hostManager(), RecipientInput{Name: "Shelter", WeeklyEstimate: -5}); err == nil {
		t.Fatal("expected error for negative estimate")
	}
	recipient, err := svc.CreateRecipient(context.Background(), hostManager(), RecipientInput{Name: "Shelter", WeeklyEstimate: 200})
	if err != nil {
		t.Fatalf("create recipient: %v", err)
	}
	if recipient.Status != "active" {
		t.Fatalf("status = %s, want active", recipient.Status)
	}
}

func TestHostTotalsAggregate(t *testing.T) {
	collections := newStubCollections()
	svc := testService(newStubHosts(), newStubRecipients(), collections)
	seedHost(t, svc, "A")
	seedHost(t, svc, "B")

	for i, hostName := range []string{"A", "A", "B"} {
		if _, err := svc.LogEntry(context.Background(), logger("vol-"+strconv.Itoa(i)), EntryInput{
			CollectionDate: time.Now().Add(time.Duration(i) * time.Minute), HostName: hostName, IndividualCount: 10,
		}); err != nil {
			t.Fatalf("log: %v", err)
		}
	}

	totals, err := svc.HostTotals(context.Background())
	if err != nil {
		t.Fatalf("HostTotals returned error: %v", err)
	}
	if len(totals) != 2 {
		t.Fatalf("expected 2 hosts, got %d", len(totals))
	}
}
