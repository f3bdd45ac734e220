// Package delegate hands execution off to the main server process once the
// startup orchestrator has made its migration decision.
//
// On unix the hand-off replaces the process image outright: the server
// inherits the orchestrator's pid, standard streams, and environment, and no
// supervisory process remains to forward signals or mistranslate exit codes.
// On platforms without an exec primitive (and in tests) a Supervisor
// approximates the same contract: spawn the child with inherited streams,
// forward received signals, and report the child's exact exit status.
package delegate
