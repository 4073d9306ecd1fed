// SPDX-License-Identifier: MPL-2.0

// Package generator invokes the build-system generator with the flags and
// targets accumulated while provisioning dependencies.
//
// CMake is the only Generator. It runs
//
//	cmake -S <source> -B <build> <flags...> <args...>
//	cmake --build <build> --target <t1> --target <t2> ...
//
// either as native processes or through the embedded shell interpreter
// (RuntimeVirtual). In dry-run mode the shell-quoted command lines are
// printed instead.
package generator
