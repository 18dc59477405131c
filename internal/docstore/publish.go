/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package docstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"fractionbars/internal/model"
	"fractionbars/internal/storage"
	"fractionbars/internal/version"
)

const ContentType = "application/vnd.fractionbars+json"

// Publish stores doc under key in the document file format. With overwrite
// an existing object is replaced, otherwise ErrExists is returned.
func Publish(ctx context.Context, st Store, key string, doc *model.Document, overwrite bool) (Info, error) {
	data, err := storage.Encode(doc)
	if err != nil {
		return Info{}, err
	}
	if overwrite {
		if _, err := st.Delete(ctx, key); err != nil {
			return Info{}, fmt.Errorf("replace %s: %w", key, err)
		}
	}
	md := map[string]string{
		"bars":    strconv.Itoa(len(doc.Bars)),
		"mats":    strconv.Itoa(len(doc.Mats)),
		"version": version.String(),
	}
	return st.Put(ctx, key, bytes.NewReader(data), PutOptions{ContentType: ContentType, Metadata: md})
}

// Fetch loads and validates the document stored under key.
func Fetch(ctx context.Context, st Store, key string) (*model.Document, error) {
	_, rc, err := st.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	doc, err := storage.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", key, err)
	}
	return doc, nil
}

// IsNotFound reports whether err means the key does not exist.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
