package group

// コマンドは「テナント (組織, 環境, ユーザー) のもとで操作Xをパラメータ付きで行う」
// ことを表す不変の値オブジェクト。生成用ファクトリ以外の経路で構築してはならない。
// ファクトリが同期的に必須フィールドを検証するため、検証に失敗したコマンドが
// ユースケースに渡ることはない。

// CreateGroupCommand は通知グループ作成コマンド。
type CreateGroupCommand struct {
	// OrganizationID は操作対象テナントの組織ID。
	OrganizationID string
	// EnvironmentID は操作対象テナントの環境ID。
	EnvironmentID string
	// UserID は操作者のユーザーID。
	UserID string
	// Name は作成するグループ名。
	Name string
}

// NewCreateGroupCommand は作成コマンドを検証付きで生成する。
// テナントスコープとグループ名が必須。検証失敗時は*ValidationErrorを返す。
func NewCreateGroupCommand(organizationID, environmentID, userID, name string) (CreateGroupCommand, error) {
	fields := missingTenantFields(organizationID, environmentID, userID)
	if name == "" {
		fields = append(fields, "name")
	}
	if len(fields) > 0 {
		return CreateGroupCommand{}, &ValidationError{Fields: fields}
	}
	return CreateGroupCommand{
		OrganizationID: organizationID,
		EnvironmentID:  environmentID,
		UserID:         userID,
		Name:           name,
	}, nil
}

// ListGroupsCommand は通知グループ一覧取得コマンド。テナントスコープのみを持つ。
type ListGroupsCommand struct {
	// OrganizationID は操作対象テナントの組織ID。
	OrganizationID string
	// EnvironmentID は操作対象テナントの環境ID。
	EnvironmentID string
	// UserID は操作者のユーザーID。
	UserID string
}

// NewListGroupsCommand は一覧取得コマンドを検証付きで生成する。
func NewListGroupsCommand(organizationID, environmentID, userID string) (ListGroupsCommand, error) {
	if fields := missingTenantFields(organizationID, environmentID, userID); len(fields) > 0 {
		return ListGroupsCommand{}, &ValidationError{Fields: fields}
	}
	return ListGroupsCommand{
		OrganizationID: organizationID,
		EnvironmentID:  environmentID,
		UserID:         userID,
	}, nil
}

// GetGroupCommand は通知グループ単体取得コマンド。
type GetGroupCommand struct {
	// OrganizationID は操作対象テナントの組織ID。
	OrganizationID string
	// EnvironmentID は操作対象テナントの環境ID。
	EnvironmentID string
	// UserID は操作者のユーザーID。
	UserID string
	// ID は取得対象グループのID。存在確認はユースケースで行う。
	ID string
}

// NewGetGroupCommand は単体取得コマンドを検証付きで生成する。
func NewGetGroupCommand(organizationID, environmentID, userID, id string) (GetGroupCommand, error) {
	fields := missingTenantFields(organizationID, environmentID, userID)
	if id == "" {
		fields = append(fields, "id")
	}
	if len(fields) > 0 {
		return GetGroupCommand{}, &ValidationError{Fields: fields}
	}
	return GetGroupCommand{
		OrganizationID: organizationID,
		EnvironmentID:  environmentID,
		UserID:         userID,
		ID:             id,
	}, nil
}

// UpdateGroupCommand は通知グループ名変更コマンド。
// 変更可能なフィールドはNameのみ。部分パッチではなく可変フィールドの全置換であり、
// Nameが空のリクエストはコマンド生成時点で失敗する。
type UpdateGroupCommand struct {
	// OrganizationID は操作対象テナントの組織ID。
	OrganizationID string
	// EnvironmentID は操作対象テナントの環境ID。
	EnvironmentID string
	// UserID は操作者のユーザーID。
	UserID string
	// ID は変更対象グループのID。
	ID string
	// Name は変更後のグループ名。
	Name string
}

// NewUpdateGroupCommand は名称変更コマンドを検証付きで生成する。
func NewUpdateGroupCommand(organizationID, environmentID, userID, id, name string) (UpdateGroupCommand, error) {
	fields := missingTenantFields(organizationID, environmentID, userID)
	if id == "" {
		fields = append(fields, "id")
	}
	if name == "" {
		fields = append(fields, "name")
	}
	if len(fields) > 0 {
		return UpdateGroupCommand{}, &ValidationError{Fields: fields}
	}
	return UpdateGroupCommand{
		OrganizationID: organizationID,
		EnvironmentID:  environmentID,
		UserID:         userID,
		ID:             id,
		Name:           name,
	}, nil
}

// DeleteGroupCommand は通知グループ削除コマンド。削除は物理削除で取り消せない。
type DeleteGroupCommand struct {
	// OrganizationID は操作対象テナントの組織ID。
	OrganizationID string
	// EnvironmentID は操作対象テナントの環境ID。
	EnvironmentID string
	// UserID は操作者のユーザーID。
	UserID string
	// ID は削除対象グループのID。
	ID string
}

// NewDeleteGroupCommand は削除コマンドを検証付きで生成する。
func NewDeleteGroupCommand(organizationID, environmentID, userID, id string) (DeleteGroupCommand, error) {
	fields := missingTenantFields(organizationID, environmentID, userID)
	if id == "" {
		fields = append(fields, "id")
	}
	if len(fields) > 0 {
		return DeleteGroupCommand{}, &ValidationError{Fields: fields}
	}
	return DeleteGroupCommand{
		OrganizationID: organizationID,
		EnvironmentID:  environmentID,
		UserID:         userID,
		ID:             id,
	}, nil
}

// missingTenantFields は全コマンド共通の必須フィールドを検証し、
// 空だったフィールド名のリストを返す。
func missingTenantFields(organizationID, environmentID, userID string) []string {
	var fields []string
	if organizationID == "" {
		fields = append(fields, "organizationId")
	}
	if environmentID == "" {
		fields = append(fields, "environmentId")
	}
	if userID == "" {
		fields = append(fields, "userId")
	}
	return fields
}
