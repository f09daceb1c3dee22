package models

// DeliverySpec names where a successful job's output is written. A nil spec
// means the local serve directory. Each backend carries its own target block;
// exactly one should be set, matching Type.
type DeliverySpec struct {
	Type string `json:"type"` // "local", "s3", "gcs" or "sftp"

	Subdir string      `json:"subdir,omitempty"` // local: folder under the serve dir
	S3     *S3Target   `json:"s3,omitempty"`
	GCS    *GCSTarget  `json:"gcs,omitempty"`
	SFTP   *SFTPTarget `json:"sftp,omitempty"`
}

type S3Target struct {
	Bucket    string `json:"bucket"`
	Region    string `json:"region"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	KeyPrefix string `json:"key_prefix,omitempty"`
}

type GCSTarget struct {
	Bucket string `json:"bucket"`
	// CredentialsJSON is a base64-encoded service account key.
	CredentialsJSON string `json:"credentials_json"`
	ObjectPrefix    string `json:"object_prefix,omitempty"`
}

type SFTPTarget struct {
	Host string `json:"host"`
	Port string `json:"port,omitempty"` // defaults to 22
	User string `json:"user"`
	// Password or PrivateKey (base64 or raw PEM); one must be set.
	Password   string `json:"password,omitempty"`
	PrivateKey string `json:"private_key,omitempty"`
	RemoteDir  string `json:"remote_dir"`
}
