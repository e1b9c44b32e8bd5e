// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package jobdef

import (
	"fmt"
	"regexp"
	"sort"
)

// variablePattern matches ${NAME} references.
var variablePattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Expand substitutes ${NAME} references in the job's bucket, key, and
// check from variables. Producer commands are left for the shell. A
// reference to an undefined variable is an error naming every missing
// variable.
func Expand(job *Job, variables map[string]string) error {
	missing := make(map[string]bool)
	expand := func(value string) string {
		return variablePattern.ReplaceAllStringFunc(value, func(match string) string {
			name := variablePattern.FindStringSubmatch(match)[1]
			if replacement, ok := variables[name]; ok {
				return replacement
			}
			missing[name] = true
			return match
		})
	}

	job.Bucket = expand(job.Bucket)
	job.Key = expand(job.Key)
	job.Check = expand(job.Check)

	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for name := range missing {
			names = append(names, name)
		}
		sort.Strings(names)
		return fmt.Errorf("undefined variables: %v", names)
	}
	return nil
}
