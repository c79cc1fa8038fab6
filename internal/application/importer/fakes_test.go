package importer_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	domain "github.com/mohammadpnp/csv-import/internal/domain/importjob"
)

type stageWrite struct {
	stage    domain.Stage
	details  domain.StageDetails
	progress *domain.Progress
}

type fakeJobRepo struct {
	mu sync.Mutex

	jobs          map[string]*domain.ImportJob
	stageWrites   []stageWrite
	completed     *domain.Summary
	failure       *domain.Failure
	failCalls     int
	fileDeletedAt *time.Time
	progressErr   error
}

func newFakeJobRepo(jobs ...domain.ImportJob) *fakeJobRepo {
	repo := &fakeJobRepo{jobs: make(map[string]*domain.ImportJob)}
	for i := range jobs {
		job := jobs[i]
		repo.jobs[job.ID] = &job
	}
	return repo
}

func (f *fakeJobRepo) Get(ctx context.Context, jobID string) (*domain.ImportJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	job, ok := f.jobs[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	copied := *job
	return &copied, nil
}

func (f *fakeJobRepo) MarkProcessing(ctx context.Context, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.jobs[jobID].Status = domain.StatusProcessing
	return nil
}

func (f *fakeJobRepo) UpdateStage(ctx context.Context, jobID string, stage domain.Stage, details domain.StageDetails) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.stageWrites = append(f.stageWrites, stageWrite{stage: stage, details: details})
	f.jobs[jobID].CurrentStage = stage
	return nil
}

func (f *fakeJobRepo) UpdateProgress(ctx context.Context, jobID string, stage domain.Stage, progress domain.Progress, details domain.StageDetails) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.progressErr != nil {
		return f.progressErr
	}
	p := progress
	f.stageWrites = append(f.stageWrites, stageWrite{stage: stage, details: details, progress: &p})
	job := f.jobs[jobID]
	job.CurrentStage = stage
	job.TotalRows = progress.TotalRows
	job.ProcessedRows = progress.ProcessedRows
	job.SuccessCount = progress.SuccessCount
	job.ErrorCount = progress.ErrorCount
	return nil
}

func (f *fakeJobRepo) MarkFileDeleted(ctx context.Context, jobID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fileDeletedAt = &at
	f.jobs[jobID].FileDeleted = true
	return nil
}

func (f *fakeJobRepo) Complete(ctx context.Context, jobID string, summary domain.Summary) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.completed = &summary
	job := f.jobs[jobID]
	job.Status = domain.StatusCompleted
	job.CurrentStage = domain.StageCompleted
	return nil
}

func (f *fakeJobRepo) Fail(ctx context.Context, jobID string, failure domain.Failure) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.failCalls++
	job, ok := f.jobs[jobID]
	if !ok {
		return domain.ErrJobNotFound
	}
	f.failure = &failure
	job.Status = domain.StatusFailed
	job.CurrentStage = domain.StageFailed
	return nil
}

func (f *fakeJobRepo) stages() []domain.Stage {
	f.mu.Lock()
	defer f.mu.Unlock()

	stages := make([]domain.Stage, 0, len(f.stageWrites))
	for _, w := range f.stageWrites {
		stages = append(stages, w.stage)
	}
	return stages
}

type fakeObjectStore struct {
	files       map[string][]byte
	downloadErr error
	deleteErr   error
	deleted     []string
}

func newFakeObjectStore(path, content string) *fakeObjectStore {
	return &fakeObjectStore{files: map[string][]byte{path: []byte(content)}}
}

func (f *fakeObjectStore) Download(ctx context.Context, path string) ([]byte, error) {
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	content, ok := f.files[path]
	if !ok {
		return nil, domain.ErrObjectNotFound
	}
	return content, nil
}

func (f *fakeObjectStore) Delete(ctx context.Context, path string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, path)
	delete(f.files, path)
	return nil
}

type fakeOrgDirectory struct {
	slugs map[string]string
}

func (f *fakeOrgDirectory) Slug(ctx context.Context, organizationID string) (string, error) {
	slug, ok := f.slugs[organizationID]
	if !ok {
		return "", domain.ErrOrganizationNotFound
	}
	return slug, nil
}

// fakeRecordStore mimics the destination tables: upserts replace rows that
// share a natural key, inserts append.
type fakeRecordStore struct {
	contacts           map[string]domain.Contact
	contactsNoEmail    []domain.Contact
	emailRecipients    map[string]domain.EmailRecipient
	whatsAppRecipients map[string]domain.WhatsAppRecipient
	inventory          map[string]domain.InventoryItem
	inventoryJobIDs    map[string]string
	repository         []domain.RepositoryRecord

	calls     int
	failOn    int
	failErr   error
	panicOnce bool
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{
		contacts:           make(map[string]domain.Contact),
		emailRecipients:    make(map[string]domain.EmailRecipient),
		whatsAppRecipients: make(map[string]domain.WhatsAppRecipient),
		inventory:          make(map[string]domain.InventoryItem),
		inventoryJobIDs:    make(map[string]string),
	}
}

func (f *fakeRecordStore) call() error {
	f.calls++
	if f.panicOnce {
		f.panicOnce = false
		panic("datastore exploded")
	}
	if f.failOn > 0 && f.calls == f.failOn {
		return f.failErr
	}
	return nil
}

func (f *fakeRecordStore) UpsertContacts(ctx context.Context, organizationID string, contacts []domain.Contact) (domain.WriteResult, error) {
	if err := f.call(); err != nil {
		return domain.WriteResult{}, err
	}
	var result domain.WriteResult
	for _, c := range contacts {
		if c.Email == "" {
			f.contactsNoEmail = append(f.contactsNoEmail, c)
			result.Inserted++
			continue
		}
		key := organizationID + "/" + c.Email
		if _, ok := f.contacts[key]; ok {
			result.Updated++
		} else {
			result.Inserted++
		}
		f.contacts[key] = c
	}
	return result, nil
}

func (f *fakeRecordStore) UpsertEmailRecipients(ctx context.Context, campaignID string, recipients []domain.EmailRecipient) (domain.WriteResult, error) {
	if err := f.call(); err != nil {
		return domain.WriteResult{}, err
	}
	var result domain.WriteResult
	for _, r := range recipients {
		key := campaignID + "/" + r.Email
		if _, ok := f.emailRecipients[key]; ok {
			result.Updated++
		} else {
			result.Inserted++
		}
		f.emailRecipients[key] = r
	}
	return result, nil
}

func (f *fakeRecordStore) UpsertWhatsAppRecipients(ctx context.Context, campaignID string, recipients []domain.WhatsAppRecipient) (domain.WriteResult, error) {
	if err := f.call(); err != nil {
		return domain.WriteResult{}, err
	}
	var result domain.WriteResult
	for _, r := range recipients {
		key := campaignID + "/" + r.PhoneNumber
		if _, ok := f.whatsAppRecipients[key]; ok {
			result.Updated++
		} else {
			result.Inserted++
		}
		f.whatsAppRecipients[key] = r
	}
	return result, nil
}

func (f *fakeRecordStore) UpsertInventoryItems(ctx context.Context, organizationID, jobID string, items []domain.InventoryItem) (domain.WriteResult, error) {
	if err := f.call(); err != nil {
		return domain.WriteResult{}, err
	}
	var result domain.WriteResult
	for _, item := range items {
		key := organizationID + "/" + item.SKU
		if _, ok := f.inventory[key]; ok {
			result.Updated++
		} else {
			result.Inserted++
		}
		f.inventory[key] = item
		f.inventoryJobIDs[key] = jobID
	}
	return result, nil
}

func (f *fakeRecordStore) ExistingRepositoryKeys(ctx context.Context, organizationID string, emails, institutionalEmails []string) (domain.ExistingKeys, error) {
	keys := domain.ExistingKeys{
		Emails:              make(map[string]struct{}),
		InstitutionalEmails: make(map[string]struct{}),
	}
	for _, r := range f.repository {
		if r.Email != "" {
			keys.Emails[strings.ToLower(r.Email)] = struct{}{}
		}
		if r.InstitutionalEmail != "" {
			keys.InstitutionalEmails[strings.ToLower(r.InstitutionalEmail)] = struct{}{}
		}
	}
	return keys, nil
}

func (f *fakeRecordStore) InsertRepositoryRecords(ctx context.Context, organizationID string, records []domain.RepositoryRecord) (domain.WriteResult, error) {
	if err := f.call(); err != nil {
		return domain.WriteResult{}, err
	}
	f.repository = append(f.repository, records...)
	return domain.WriteResult{Inserted: len(records)}, nil
}

var errDatastore = errors.New("datastore unavailable")
