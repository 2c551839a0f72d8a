package store

import (
	"context"
	"sort"
	"sync"

	"github.com/loomhq/loom/pkg/models"
)

// MemStore is an in-memory Store used by tests and by CLI commands that
// operate without a configured backend.
type MemStore struct {
	mu          sync.RWMutex
	designs     map[string]*models.Design
	deployments map[string]*models.Deployment
	logs        map[string]*models.ExecutionLog
	logOrder    []string
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		designs:     make(map[string]*models.Design),
		deployments: make(map[string]*models.Deployment),
		logs:        make(map[string]*models.ExecutionLog),
	}
}

// ListDesigns returns every stored design, sorted by ID.
func (m *MemStore) ListDesigns(ctx context.Context) ([]*models.Design, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Design, 0, len(m.designs))
	for _, d := range m.designs {
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetDesign returns the design with the given ID, or ErrNotFound.
func (m *MemStore) GetDesign(ctx context.Context, id string) (*models.Design, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.designs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

// PutDesign inserts or replaces a design by ID.
func (m *MemStore) PutDesign(ctx context.Context, design *models.Design) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *design
	m.designs[design.ID] = &cp
	return nil
}

// DeleteDesign removes a design by ID.
func (m *MemStore) DeleteDesign(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.designs[id]; !ok {
		return ErrNotFound
	}
	delete(m.designs, id)
	return nil
}

// ListDeployments returns every stored deployment, sorted by ID.
func (m *MemStore) ListDeployments(ctx context.Context) ([]*models.Deployment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Deployment, 0, len(m.deployments))
	for _, d := range m.deployments {
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetDeployment returns the deployment with the given ID, or ErrNotFound.
func (m *MemStore) GetDeployment(ctx context.Context, id string) (*models.Deployment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.deployments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

// CreateDeployment inserts a new deployment.
func (m *MemStore) CreateDeployment(ctx context.Context, dep *models.Deployment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *dep
	m.deployments[dep.ID] = &cp
	return nil
}

// UpdateDeployment applies a partial update.
func (m *MemStore) UpdateDeployment(ctx context.Context, id string, update DeploymentUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deployments[id]
	if !ok {
		return ErrNotFound
	}
	if update.Name != nil {
		d.Name = *update.Name
	}
	if update.Status != nil {
		d.Status = *update.Status
	}
	if update.Schedule != nil {
		d.Schedule = *update.Schedule
	}
	if update.InputData != nil {
		d.InputData = *update.InputData
	}
	if update.ExecutionCount != nil {
		d.ExecutionCount = *update.ExecutionCount
	}
	if update.LastExecutionAt != nil {
		t := *update.LastExecutionAt
		d.LastExecutionAt = &t
	}
	return nil
}

// CreateExecutionLog inserts a new execution log row.
func (m *MemStore) CreateExecutionLog(ctx context.Context, log *models.ExecutionLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *log
	m.logs[log.ID] = &cp
	m.logOrder = append(m.logOrder, log.ID)
	return nil
}

// UpdateExecutionLog applies a partial update.
func (m *MemStore) UpdateExecutionLog(ctx context.Context, id string, update ExecutionLogUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.logs[id]
	if !ok {
		return ErrNotFound
	}
	if update.Status != nil {
		l.Status = *update.Status
	}
	if update.CompletedAt != nil {
		t := *update.CompletedAt
		l.CompletedAt = &t
	}
	if update.DurationMS != nil {
		l.DurationMS = *update.DurationMS
	}
	if update.Result != nil {
		l.Result = *update.Result
	}
	if update.Error != nil {
		l.Error = *update.Error
	}
	return nil
}

// ListExecutionLogs returns logs newest first.
func (m *MemStore) ListExecutionLogs(ctx context.Context, deploymentID string, limit int) ([]*models.ExecutionLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.ExecutionLog
	for i := len(m.logOrder) - 1; i >= 0; i-- {
		l := m.logs[m.logOrder[i]]
		if deploymentID != "" && l.DeploymentID != deploymentID {
			continue
		}
		cp := *l
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// ListRunningExecutionLogs returns every log still in the running state.
func (m *MemStore) ListRunningExecutionLogs(ctx context.Context) ([]*models.ExecutionLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.ExecutionLog
	for _, id := range m.logOrder {
		l := m.logs[id]
		if l.Status == models.ExecutionRunning {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error {
	return nil
}
