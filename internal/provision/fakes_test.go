package provision

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// testPoller keeps the production attempt bound but sleeps for real
// zero time so tests run instantly.
func testPoller(attempts int) poller {
	return poller{interval: 0, attempts: attempts, sleep: func(time.Duration) {}}
}

// In-memory fakes for every external dependency of the Provisioner.
// Each fake records the calls the flow under test is expected to make.

type fakeParams struct {
	values map[string]string
	puts   []string
	dels   []string
	// failDel, when set, fails Delete for keys containing the substring.
	failDel string
}

func newFakeParams() *fakeParams {
	return &fakeParams{values: map[string]string{}}
}

func (f *fakeParams) Get(_ context.Context, key string) (string, error) {
	v, ok := f.values[key]
	if !ok {
		return "", ErrRecordNotFound
	}
	return v, nil
}

func (f *fakeParams) Put(_ context.Context, key, value string) error {
	f.values[key] = value
	f.puts = append(f.puts, key)
	return nil
}

func (f *fakeParams) Delete(_ context.Context, key string) error {
	if f.failDel != "" && strings.Contains(key, f.failDel) {
		return fmt.Errorf("injected delete failure for %s", key)
	}
	delete(f.values, key)
	f.dels = append(f.dels, key)
	return nil
}

type fakeSecrets struct {
	values  map[string]string
	creates int
	updates int
	deletes int
	err     error
}

func newFakeSecrets() *fakeSecrets {
	return &fakeSecrets{values: map[string]string{}}
}

func (f *fakeSecrets) Exists(_ context.Context, name string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.values[name]
	return ok, nil
}

func (f *fakeSecrets) Create(_ context.Context, name, value string) error {
	if f.err != nil {
		return f.err
	}
	f.values[name] = value
	f.creates++
	return nil
}

func (f *fakeSecrets) Update(_ context.Context, name, value string) error {
	if f.err != nil {
		return f.err
	}
	f.values[name] = value
	f.updates++
	return nil
}

func (f *fakeSecrets) Delete(_ context.Context, name string) error {
	if f.err != nil {
		return f.err
	}
	delete(f.values, name)
	f.deletes++
	return nil
}

type fakeIdentity struct {
	poolsCreated   int
	clientsCreated int
	usersCreated   int
	poolsDeleted   []string
	lookupClientID string
	deleteErr      error
}

func (f *fakeIdentity) CreatePool(_ context.Context, name string) (string, error) {
	f.poolsCreated++
	return fmt.Sprintf("us-west-2_pool%d", f.poolsCreated), nil
}

func (f *fakeIdentity) CreateClient(_ context.Context, poolID, name string) (string, error) {
	f.clientsCreated++
	return fmt.Sprintf("client%d", f.clientsCreated), nil
}

func (f *fakeIdentity) CreateUser(_ context.Context, poolID, username, password string) error {
	f.usersCreated++
	return nil
}

func (f *fakeIdentity) Authenticate(_ context.Context, clientID, username, password string) (string, error) {
	return "bearer-" + clientID, nil
}

func (f *fakeIdentity) LookupClientID(_ context.Context, poolID string) (string, error) {
	if f.lookupClientID == "" {
		return "", fmt.Errorf("pool %q has no app clients", poolID)
	}
	return f.lookupClientID, nil
}

func (f *fakeIdentity) DeletePool(_ context.Context, poolID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.poolsDeleted = append(f.poolsDeleted, poolID)
	return nil
}

type fakeRegistry struct {
	images       []ImageID
	deletedIDs   []ImageID
	deletedRepos []string
	listErr      error
}

func (f *fakeRegistry) ListImageIDs(_ context.Context, repo string) ([]ImageID, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.images, nil
}

func (f *fakeRegistry) BatchDeleteImages(_ context.Context, repo string, ids []ImageID) error {
	f.deletedIDs = append(f.deletedIDs, ids...)
	return nil
}

func (f *fakeRegistry) DeleteRepository(_ context.Context, repo string) error {
	f.deletedRepos = append(f.deletedRepos, repo)
	return nil
}

type fakeRuntime struct {
	deleted []string
	// existsLeft is how many probes report the runtime still present
	// before it reads as gone.
	existsLeft int
	deleteErr  error
}

func (f *fakeRuntime) RuntimeExists(_ context.Context, id string) (bool, error) {
	if f.existsLeft > 0 {
		f.existsLeft--
		return true, nil
	}
	return false, nil
}

func (f *fakeRuntime) DeleteRuntime(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeRoles struct {
	arns map[string]string
}

func (f *fakeRoles) LookupRoleARN(_ context.Context, name string) (string, error) {
	arn, ok := f.arns[name]
	if !ok {
		return "", ErrRoleNotFound
	}
	return arn, nil
}

type fakeLogs struct {
	ensured []string
	err     error
}

func (f *fakeLogs) EnsureLogGroup(_ context.Context, name string) error {
	if f.err != nil {
		return f.err
	}
	f.ensured = append(f.ensured, name)
	return nil
}

type fakeToolchain struct {
	configured []ConfigureOptions
	launchOut  string
	launchErr  error
	// statusOut is returned for each Status call in order; the last
	// entry repeats once exhausted.
	statusOut   []string
	statusCalls int
}

func (f *fakeToolchain) Configure(_ context.Context, spec *UnitSpec, opts ConfigureOptions) error {
	f.configured = append(f.configured, opts)
	return nil
}

func (f *fakeToolchain) Launch(_ context.Context, spec *UnitSpec) (string, error) {
	return f.launchOut, f.launchErr
}

func (f *fakeToolchain) Status(_ context.Context, spec *UnitSpec) (string, error) {
	i := f.statusCalls
	f.statusCalls++
	if i >= len(f.statusOut) {
		i = len(f.statusOut) - 1
	}
	return f.statusOut[i], nil
}

// testDeps bundles the fakes behind a Provisioner wired for tests.
// Pollers use a nil-op sleep so loops run instantly.
type testDeps struct {
	params    *fakeParams
	secrets   *fakeSecrets
	identity  *fakeIdentity
	registry  *fakeRegistry
	runtime   *fakeRuntime
	roles     *fakeRoles
	logs      *fakeLogs
	toolchain *fakeToolchain
}

func newTestProvisioner() (*Provisioner, *testDeps) {
	d := &testDeps{
		params:    newFakeParams(),
		secrets:   newFakeSecrets(),
		identity:  &fakeIdentity{},
		registry:  &fakeRegistry{},
		runtime:   &fakeRuntime{},
		roles:     &fakeRoles{arns: map[string]string{}},
		logs:      &fakeLogs{},
		toolchain: &fakeToolchain{},
	}
	p := &Provisioner{
		region:    "us-west-2",
		account:   "123456789012",
		params:    d.params,
		secrets:   d.secrets,
		identity:  d.identity,
		registry:  d.registry,
		runtime:   d.runtime,
		roles:     d.roles,
		logs:      d.logs,
		toolchain: d.toolchain,
		readyPoll: testPoller(maxReadyAttempts),
		gonePoll:  testPoller(maxGoneAttempts),
	}
	return p, d
}
