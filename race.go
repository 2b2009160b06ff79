// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package conflq

// RaceEnabled is true when the race detector is active.
// The concurrent stress tests of the atomix-backed rings, which trigger
// false positives due to cross-variable memory ordering, are kept out of
// race builds by a //go:build !race constraint rather than by this constant.
const RaceEnabled = true
