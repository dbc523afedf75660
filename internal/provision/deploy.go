package provision

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// identityRefs are the identity-pool identifiers a unit depends on,
// either reused from the parameter store or freshly created.
type identityRefs struct {
	PoolID       string
	ClientID     string
	DiscoveryURL string
}

// Deploy brings the unit's backing resources into existence and waits
// for the runtime to become serviceable. Safe to re-invoke: existing
// state is resolved from the external stores before anything is
// created.
func (p *Provisioner) Deploy(ctx context.Context, spec *UnitSpec) error {
	log.Printf("provision: deploying unit %q (protocol %s) in %s", spec.Name, spec.Protocol, p.region)

	// Pre-flight: the execution role is owned by a separate layer and
	// must already exist.
	roleARN, err := p.roles.LookupRoleARN(ctx, spec.RoleName())
	if err != nil {
		if errors.Is(err, ErrRoleNotFound) {
			return &ProvisionError{
				Category:    ErrCategoryConfiguration,
				Operation:   "pre-flight",
				Resource:    "execution_role",
				Message:     fmt.Sprintf("role %q does not exist", spec.RoleName()),
				Remediation: "create the execution role with the infrastructure stack before deploying",
				Cause:       err,
			}
		}
		return wrapStep("pre-flight", "execution_role", err)
	}
	log.Printf("provision: using execution role %s", roleARN)

	refs, err := p.ensureIdentityPool(ctx, spec)
	if err != nil {
		return err
	}

	if err := p.refreshCredentialBundle(ctx, spec, refs); err != nil {
		return err
	}

	// Informational record: the role is referenced, not owned.
	if err := p.params.Put(ctx, recordKey(spec.Name, FieldRoleName), spec.RoleName()); err != nil {
		return wrapStep("persist", FieldRoleName, err)
	}

	repoURI := registryURI(p.account, p.region, spec.RepoName())
	if err := p.params.Put(ctx, recordKey(spec.Name, FieldECRRepoName), spec.RepoName()); err != nil {
		return wrapStep("persist", FieldECRRepoName, err)
	}
	log.Printf("provision: container registry %s", repoURI)

	authorizer, err := p.buildAuthorizer(ctx, spec, refs)
	if err != nil {
		return err
	}

	if err := p.logs.EnsureLogGroup(ctx, runtimeLogGroup(spec.Name)); err != nil {
		// Launch can proceed without the pre-created group; the runtime
		// creates it lazily at first write.
		log.Printf("provision: warning: could not ensure log group: %v", err)
	}

	log.Printf("provision: configuring runtime %q", spec.RuntimeName())
	if err := p.toolchain.Configure(ctx, spec, ConfigureOptions{
		RoleARN:    roleARN,
		RepoURI:    repoURI,
		Authorizer: authorizer,
	}); err != nil {
		return wrapStep("configure", "agent_runtime", err)
	}

	log.Printf("provision: launching runtime %q", spec.RuntimeName())
	launchOut, err := p.toolchain.Launch(ctx, spec)
	if err != nil {
		return wrapStep("launch", "agent_runtime", err)
	}

	arn, err := ExtractAgentARN(launchOut)
	if err != nil {
		return err
	}
	log.Printf("provision: launched %s", arn)

	status, raw, err := p.readyPoll.waitReady(ctx, func(ctx context.Context) (string, error) {
		return p.toolchain.Status(ctx, spec)
	})
	if err != nil {
		return wrapStep("poll", "agent_runtime", err)
	}
	switch {
	case status == StatusReady:
		log.Printf("provision: runtime %q is ready", spec.RuntimeName())
		// The terminal response is the freshest source for the final
		// identifier; fall back to the launch-time ARN.
		if finalARN, exErr := ExtractAgentARN(raw); exErr == nil {
			arn = finalARN
		}
	case status.Failed():
		return &ProvisionError{
			Category:  ErrCategoryResource,
			Operation: "poll",
			Resource:  "agent_runtime",
			Message:   fmt.Sprintf("runtime entered %s: %s", status, truncate(raw, 200)),
		}
	default:
		log.Printf("provision: warning: runtime still %s after %d attempts; recording launch identifiers anyway",
			status, p.readyPoll.attempts)
	}

	if err := p.persistRuntimeRecords(ctx, spec, arn); err != nil {
		return err
	}

	log.Printf("provision: unit %q deployed", spec.Name)
	return nil
}

// ensureIdentityPool reuses the recorded identity pool when one exists,
// re-deriving any individually missing dependent records from the live
// provider, and creates the pool, client, and test principal otherwise.
// Creating a second pool on re-run would leak resources, so the
// recorded pool id always wins.
func (p *Provisioner) ensureIdentityPool(ctx context.Context, spec *UnitSpec) (*identityRefs, error) {
	poolID, err := p.params.Get(ctx, recordKey(spec.Name, FieldUserPoolID))
	switch {
	case err == nil && poolID != "":
		log.Printf("provision: reusing identity pool %s", poolID)
		return p.reuseIdentityPool(ctx, spec, poolID)
	case errors.Is(err, ErrRecordNotFound) || poolID == "":
		return p.createIdentityPool(ctx, spec)
	default:
		return nil, wrapStep("lookup", FieldUserPoolID, err)
	}
}

// reuseIdentityPool fills in client id and discovery URL for a recorded
// pool, persisting anything that had to be re-derived.
func (p *Provisioner) reuseIdentityPool(ctx context.Context, spec *UnitSpec, poolID string) (*identityRefs, error) {
	refs := &identityRefs{PoolID: poolID}

	clientID, err := p.params.Get(ctx, recordKey(spec.Name, FieldClientID))
	if errors.Is(err, ErrRecordNotFound) || clientID == "" {
		clientID, err = p.identity.LookupClientID(ctx, poolID)
		if err != nil {
			return nil, wrapStep("lookup", FieldClientID, err)
		}
		if err := p.params.Put(ctx, recordKey(spec.Name, FieldClientID), clientID); err != nil {
			return nil, wrapStep("persist", FieldClientID, err)
		}
	} else if err != nil {
		return nil, wrapStep("lookup", FieldClientID, err)
	}
	refs.ClientID = clientID

	discoveryURL, err := p.params.Get(ctx, recordKey(spec.Name, FieldDiscoveryURL))
	if errors.Is(err, ErrRecordNotFound) || discoveryURL == "" {
		discoveryURL = deriveDiscoveryURL(p.region, poolID)
		if err := p.params.Put(ctx, recordKey(spec.Name, FieldDiscoveryURL), discoveryURL); err != nil {
			return nil, wrapStep("persist", FieldDiscoveryURL, err)
		}
	} else if err != nil {
		return nil, wrapStep("lookup", FieldDiscoveryURL, err)
	}
	refs.DiscoveryURL = discoveryURL

	return refs, nil
}

// createIdentityPool provisions a fresh pool, app client, and test
// principal, and records all three identifiers.
func (p *Provisioner) createIdentityPool(ctx context.Context, spec *UnitSpec) (*identityRefs, error) {
	log.Printf("provision: creating identity pool %q", spec.PoolName())
	poolID, err := p.identity.CreatePool(ctx, spec.PoolName())
	if err != nil {
		return nil, wrapStep("create", "user_pool", err)
	}

	clientID, err := p.identity.CreateClient(ctx, poolID, spec.Name+"-client")
	if err != nil {
		return nil, wrapStep("create", "user_pool_client", err)
	}

	if err := p.identity.CreateUser(ctx, poolID, testUsername, testPassword); err != nil {
		return nil, wrapStep("create", "test_principal", err)
	}

	refs := &identityRefs{
		PoolID:       poolID,
		ClientID:     clientID,
		DiscoveryURL: deriveDiscoveryURL(p.region, poolID),
	}

	for field, value := range map[string]string{
		FieldUserPoolID:   refs.PoolID,
		FieldClientID:     refs.ClientID,
		FieldDiscoveryURL: refs.DiscoveryURL,
	} {
		if err := p.params.Put(ctx, recordKey(spec.Name, field), value); err != nil {
			return nil, wrapStep("persist", field, err)
		}
	}
	log.Printf("provision: created identity pool %s with client %s", poolID, clientID)
	return refs, nil
}

// refreshCredentialBundle authenticates the test principal and upserts
// the full credential bundle as one blob. The existence probe decides
// create vs update; the bundle is never partially written.
func (p *Provisioner) refreshCredentialBundle(ctx context.Context, spec *UnitSpec, refs *identityRefs) error {
	token, err := p.identity.Authenticate(ctx, refs.ClientID, testUsername, testPassword)
	if err != nil {
		return wrapStep("authenticate", "test_principal", err)
	}

	bundle := &CredentialBundle{
		PoolID:      refs.PoolID,
		ClientID:    refs.ClientID,
		BearerToken: token,
		Username:    testUsername,
		Password:    testPassword,
	}
	value, err := bundle.Encode()
	if err != nil {
		return wrapStep("encode", "credential_bundle", err)
	}

	name := credentialSecretName(spec.Name)
	exists, err := p.secrets.Exists(ctx, name)
	if err != nil {
		return wrapStep("probe", "credential_bundle", err)
	}
	if exists {
		if err := p.secrets.Update(ctx, name, value); err != nil {
			return wrapStep("update", "credential_bundle", err)
		}
		log.Printf("provision: updated credential bundle %s", name)
		return nil
	}
	if err := p.secrets.Create(ctx, name, value); err != nil {
		return wrapStep("create", "credential_bundle", err)
	}
	log.Printf("provision: created credential bundle %s", name)
	return nil
}

// buildAuthorizer validates the discovery URL shape, reconstructing it
// once from pool id and region when malformed, and associates it with
// the app client.
func (p *Provisioner) buildAuthorizer(ctx context.Context, spec *UnitSpec, refs *identityRefs) (*AuthorizerConfig, error) {
	url, err := repairDiscoveryURL(refs.DiscoveryURL, p.region, refs.PoolID)
	if err != nil {
		return nil, err
	}
	if url != refs.DiscoveryURL {
		refs.DiscoveryURL = url
		if err := p.params.Put(ctx, recordKey(spec.Name, FieldDiscoveryURL), url); err != nil {
			return nil, wrapStep("persist", FieldDiscoveryURL, err)
		}
	}
	return &AuthorizerConfig{ClientID: refs.ClientID, DiscoveryURL: url}, nil
}

// persistRuntimeRecords writes the final runtime identifiers.
func (p *Provisioner) persistRuntimeRecords(ctx context.Context, spec *UnitSpec, arn string) error {
	for field, value := range map[string]string{
		FieldAgentARN:  arn,
		FieldAgentID:   agentIDFromARN(arn),
		FieldAgentName: spec.RuntimeName(),
	} {
		if err := p.params.Put(ctx, recordKey(spec.Name, field), value); err != nil {
			return wrapStep("persist", field, err)
		}
	}
	return nil
}
