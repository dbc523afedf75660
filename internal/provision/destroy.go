package provision

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// Destroy tears down every resource recorded for the unit, best-effort.
// Each step independently tolerates absence; failures are counted and
// reported at the end rather than aborting the remaining steps, since
// stopping early would strand everything after the failing resource.
func (p *Provisioner) Destroy(ctx context.Context, unitName string) error {
	name := p.canonicalUnitName(ctx, unitName)
	log.Printf("provision: destroying unit %q in %s", name, p.region)

	var failures int

	failures += p.destroyRuntime(ctx, name)
	failures += p.destroyRegistry(ctx, name)
	failures += p.destroyIdentityPool(ctx, name)
	failures += p.destroySecret(ctx, name)
	failures += p.destroyRecords(ctx, name)

	if failures > 0 {
		return fmt.Errorf(
			"teardown of %q completed with %d error(s); manual cleanup may be required",
			name, failures,
		)
	}
	log.Printf("provision: unit %q destroyed", name)
	return nil
}

// canonicalUnitName resolves the name teardown reports under. The
// recorded agent name wins over the caller-supplied one so a renamed
// unit is still identified by what was actually deployed; record keys
// themselves stay under the caller's namespace.
func (p *Provisioner) canonicalUnitName(ctx context.Context, unitName string) string {
	stored, err := p.params.Get(ctx, recordKey(unitName, FieldAgentName))
	if err != nil || stored == "" {
		return unitName
	}
	if stored != unitName {
		log.Printf("provision: unit %q recorded as %q", unitName, stored)
	}
	return unitName
}

// lookupRecord fetches one record, tolerating absence. The bool
// reports presence.
func (p *Provisioner) lookupRecord(ctx context.Context, unit, field string) (string, bool) {
	value, err := p.params.Get(ctx, recordKey(unit, field))
	if err != nil {
		if !errors.Is(err, ErrRecordNotFound) {
			log.Printf("provision: warning: could not read %s record: %v", field, err)
		}
		return "", false
	}
	return value, value != ""
}

// destroyRuntime deletes the compute runtime and waits for the
// existence probe to start failing. Still-present after the bound is a
// warning, not a failure: deletion continues asynchronously.
func (p *Provisioner) destroyRuntime(ctx context.Context, unit string) int {
	agentID, ok := p.lookupRecord(ctx, unit, FieldAgentID)
	if !ok {
		log.Printf("provision: no runtime recorded for %q, skipping", unit)
		return 0
	}

	log.Printf("provision: deleting runtime %s", agentID)
	if err := p.runtime.DeleteRuntime(ctx, agentID); err != nil {
		log.Printf("provision: error: delete runtime %s: %v", agentID, err)
		return 1
	}

	gone, err := p.gonePoll.waitGone(ctx, func(ctx context.Context) (bool, error) {
		return p.runtime.RuntimeExists(ctx, agentID)
	})
	if err != nil {
		log.Printf("provision: warning: polling runtime %s: %v", agentID, err)
		return 0
	}
	if !gone {
		log.Printf("provision: warning: runtime %s still present after %d checks, proceeding",
			agentID, p.gonePoll.attempts)
	}
	return 0
}

// destroyRegistry purges all stored images and then deletes the
// repository. An empty image list is fine.
func (p *Provisioner) destroyRegistry(ctx context.Context, unit string) int {
	repo, ok := p.lookupRecord(ctx, unit, FieldECRRepoName)
	if !ok {
		log.Printf("provision: no registry recorded for %q, skipping", unit)
		return 0
	}

	images, err := p.registry.ListImageIDs(ctx, repo)
	if err != nil {
		log.Printf("provision: error: list images in %s: %v", repo, err)
		return 1
	}
	if len(images) > 0 {
		log.Printf("provision: deleting %d image(s) from %s", len(images), repo)
		if err := p.registry.BatchDeleteImages(ctx, repo, images); err != nil {
			log.Printf("provision: error: delete images in %s: %v", repo, err)
			return 1
		}
	}
	if err := p.registry.DeleteRepository(ctx, repo); err != nil {
		log.Printf("provision: error: delete repository %s: %v", repo, err)
		return 1
	}
	log.Printf("provision: deleted repository %s", repo)
	return 0
}

// destroyIdentityPool deletes the recorded user pool.
func (p *Provisioner) destroyIdentityPool(ctx context.Context, unit string) int {
	poolID, ok := p.lookupRecord(ctx, unit, FieldUserPoolID)
	if !ok {
		log.Printf("provision: no identity pool recorded for %q, skipping", unit)
		return 0
	}
	if err := p.identity.DeletePool(ctx, poolID); err != nil {
		log.Printf("provision: error: delete identity pool %s: %v", poolID, err)
		return 1
	}
	log.Printf("provision: deleted identity pool %s", poolID)
	return 0
}

// destroySecret removes the credential bundle.
func (p *Provisioner) destroySecret(ctx context.Context, unit string) int {
	name := credentialSecretName(unit)
	if err := p.secrets.Delete(ctx, name); err != nil {
		log.Printf("provision: error: delete secret %s: %v", name, err)
		return 1
	}
	return 0
}

// destroyRecords deletes every known record key, counting deletions.
// Already-absent keys are not errors.
func (p *Provisioner) destroyRecords(ctx context.Context, unit string) int {
	failures := 0
	deleted := 0
	for _, field := range recordFields {
		key := recordKey(unit, field)
		if err := p.params.Delete(ctx, key); err != nil {
			log.Printf("provision: error: delete record %s: %v", key, err)
			failures++
			continue
		}
		deleted++
	}
	log.Printf("provision: removed %d/%d record key(s)", deleted, len(recordFields))
	return failures
}
