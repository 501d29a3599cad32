/*
 * Copyright 2025 SREDiag Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDataTypeHas(t *testing.T) {
	ft := TypeFloat | TypeDouble
	assert.True(t, ft.Has(TypeFloat))
	assert.True(t, ft.Has(TypeFloat|TypeDouble))
	assert.False(t, ft.Has(TypeInt))
	assert.False(t, ft.Has(TypeUnknown))
}

func TestDataTypeString(t *testing.T) {
	assert.Equal(t, "unknown", TypeUnknown.String())
	assert.Equal(t, "float|double", (TypeFloat | TypeDouble).String())
	assert.Equal(t, "int[]|data", (TypeIntArray | TypeData).String())
}

func TestParseDataType(t *testing.T) {
	for in, want := range map[string]DataType{
		"float":          TypeFloat,
		"Float | double": TypeFloat | TypeDouble,
		"int[]":          TypeIntArray,
		"34":             TypeFloat | TypeData,
	} {
		got, err := ParseDataType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseDataType("string")
	assert.Error(t, err)

	var doc struct {
		Types DataType `yaml:"types"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("types: int|float\n"), &doc))
	assert.Equal(t, TypeInt|TypeFloat, doc.Types)
}

func TestDescriptorTruncates(t *testing.T) {
	var d Descriptor
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'a'
	}
	d.Set(string(long), "com.example.x", "demo")
	name, sig, desc := d.Strings()
	assert.Len(t, name, DescriptorSize-1)
	assert.Equal(t, "com.example.x", sig)
	assert.Equal(t, "demo", desc)

	d.Set("b", "c.d", "")
	name, _, desc = d.Strings()
	assert.Equal(t, "b", name)
	assert.Empty(t, desc)
}

func TestCommandPhaseString(t *testing.T) {
	assert.Equal(t, "begin", CommandBegin.String())
	assert.Equal(t, "end", CommandEnd.String())
	assert.Equal(t, "unknown", CommandPhase(9).String())
}
