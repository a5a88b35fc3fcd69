package record

// driveRelations are the locations a volume payload may list its member drives.
var driveRelations = [][]string{
	{"Links", "Drives"},
	{"links", "drives"},
	{"Drives"},
	{"drives"},
}

// VolumeDriveRefs returns the drive references listed by a volume. Entries may be
// bare strings or reference objects. The normalised "drive_refs" field is used
// when the volume carries no raw payload.
func VolumeDriveRefs(volume *Record) []string {
	if volume == nil {
		return nil
	}
	var refs []string
	for _, path := range driveRelations {
		for _, entry := range DigSlice(volume.Raw, path...) {
			if ref := refOf(entry); ref != "" {
				refs = append(refs, ref)
			}
		}
		if len(refs) > 0 {
			return refs
		}
	}
	if v, ok := volume.Get("drive_refs"); ok {
		switch t := v.(type) {
		case []string:
			refs = append(refs, t...)
		case []any:
			for _, entry := range t {
				if ref := refOf(entry); ref != "" {
					refs = append(refs, ref)
				}
			}
		}
	}
	return refs
}

// DriveIdentities returns every identifier a drive may be referenced by.
func DriveIdentities(drive *Record) []string {
	if drive == nil {
		return nil
	}
	var ids []string
	if id := drive.String("odata_id"); id != "" {
		ids = append(ids, id)
	}
	for _, key := range ReferenceKeys {
		if id := DigString(drive.Raw, key); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// DrivesForVolume returns the drives a volume is built from, in the order of
// drives. References are compared by exact string equality.
func DrivesForVolume(volume *Record, drives []*Record) []*Record {
	refs := map[string]struct{}{}
	for _, ref := range VolumeDriveRefs(volume) {
		refs[ref] = struct{}{}
	}
	members := []*Record{}
	if len(refs) == 0 {
		return members
	}
	for _, drive := range drives {
		for _, id := range DriveIdentities(drive) {
			if _, ok := refs[id]; ok {
				members = append(members, drive)
				break
			}
		}
	}
	return members
}

func refOf(entry any) string {
	switch t := entry.(type) {
	case string:
		return t
	case map[string]any:
		return Reference(t)
	}
	return ""
}
