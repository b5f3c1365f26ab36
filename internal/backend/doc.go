// Package backend selects the physics world implementation at startup.
//
// A [Backend] is a named, capability-tagged world factory. The [Registry]
// holds every known backend and resolves a requested name with a fixed
// fallback:
//
//   - requested backend known and available: use it
//   - unknown, unavailable, or a forced failure: use the fallback backend
//     (baseline unless configured otherwise)
//
// Fallback is an expected operational branch. It is reported in a
// [SelectionResult], never as an error:
//
//	res, err := backend.NewRegistry().Select("native", false)
//	if res.FellBack {
//	    logger.Warn("backend fallback", "reason", res.Reason)
//	}
//
// The preferred name can come from the HYBRIDSIM_BACKEND environment
// variable via [NameFromEnv].
package backend
