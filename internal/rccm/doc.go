// Package rccm implements gap reconstruction for radiometric camera-by-camera
// cloud mask (RCCM) grids.
//
// Each of the nine cameras in an acquisition contributes one fixed-size grid of
// categorical cells (512 samples by 128 lines). Downlink dropouts and decoder
// rejects leave cells marked missing; this package fills them back in from
// surviving neighborhood evidence so that downstream classification sees a
// complete mask.
//
// The package is layered:
//
//   - grid.go defines the cell vocabulary and the MaskGrid / CameraStack
//     containers shared by every stage of the pipeline.
//   - vote.go implements the single-cell neighborhood vote, the only place a
//     reconstruction decision is made.
//   - scan.go and stage.go drive the vote over a grid: one deterministic pass
//     over the missing cells, repeated to a fixpoint.
//   - reconstruct.go schedules stages across the nine cameras and produces the
//     run report consumed by storage and monitoring.
//
// Reconstruction mutates grids in place. Within a pass, a cell filled earlier
// in scan order is visible as evidence to cells voted later in the same pass;
// this is what lets a stage erode a contiguous missing region inward from its
// rim instead of only peeling one cell ring per pass.
package rccm
