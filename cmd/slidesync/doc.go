// Command slidesync is the CLI for the slide video re-timing pipeline: it
// queues narrated slide videos with their exported slides and translated
// speech manifests, runs jobs through the detect/time/mix/assemble stages,
// and inspects queue state.
package main
